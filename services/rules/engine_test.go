// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rules

import (
	"reflect"
	"strings"
	"testing"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/forms"
)

const completeDescription = "Found 3 damaged cartons (batch B-2024-0156) in receiving area at 09:30. Cardboard crushed on one side, product exposed to open air during transit handling."

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

func TestValidateDescriptionCompleteness(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name       string
		text       string
		category   forms.NCACategory
		wantValid  bool
		wantErrors int
	}{
		{
			name:       "short vague description fails finished goods minimum",
			text:       "Product was bad",
			category:   forms.CategoryFinishedGoods,
			wantValid:  false,
			wantErrors: 2, // length shortfall plus missing batch
		},
		{
			name:      "complete description passes",
			text:      completeDescription,
			category:  forms.CategoryFinishedGoods,
			wantValid: true,
		},
		{
			name:       "incident without time of occurrence is blocked",
			text:       strings.Repeat("Observed residue on line 2 mixer blades near the zone boundary, quantity approximately 2 kg, batch B-2024-0200. ", 2),
			category:   forms.CategoryIncident,
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name:      "unknown category falls back to default minimum",
			text:      completeDescription,
			category:  forms.NCACategory("mystery"),
			wantValid: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := engine.ValidateDescriptionCompleteness(tc.text, tc.category)
			if result.Valid != tc.wantValid {
				t.Fatalf("Valid = %v, want %v (issues: %+v)", result.Valid, tc.wantValid, result.Issues)
			}
			errors := 0
			for _, issue := range result.Issues {
				if issue.Severity == SeverityError {
					errors++
				}
			}
			if errors != tc.wantErrors {
				t.Errorf("error count = %d, want %d (issues: %+v)", errors, tc.wantErrors, result.Issues)
			}
		})
	}
}

func TestValidateDescriptionCompleteness_MissingElementsAreIndividuallyReported(t *testing.T) {
	engine := newTestEngine(t)

	// Long enough for the "other" category but names no time, place,
	// quantity, or batch.
	text := strings.Repeat("The packaging material does not conform to the agreed specification sheet. ", 2)
	result := engine.ValidateDescriptionCompleteness(text, forms.CategoryOther)

	if len(result.MissingRequirements) < 3 {
		t.Fatalf("MissingRequirements = %v, expected at least when/quantity/batch", result.MissingRequirements)
	}
	if len(result.Issues) != len(result.MissingRequirements) {
		t.Errorf("expected one issue per missing element, got %d issues for %d missing",
			len(result.Issues), len(result.MissingRequirements))
	}
	if !result.Valid {
		t.Errorf("missing elements alone should warn, not block, for category other: %+v", result.Issues)
	}
}

func TestDetectVagueLanguage(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "vague phrases are collected and deduplicated",
			text: "Some cartons were bad, really bad, and some were broken",
			want: []string{"bad", "broken", "some"},
		},
		{
			name: "clean text yields nothing",
			text: "Found 3 torn bags of flour, batch B-1001, on line 4 at 08:15",
			want: nil,
		},
		{
			name: "approximately without numbers is vague",
			text: "Approximately all of the pallet was affected",
			want: []string{"approximately"},
		},
		{
			name: "approximately anchored by a number is fine",
			text: "Approximately 40 cartons of batch B-1001 affected",
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.DetectVagueLanguage(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("DetectVagueLanguage(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestValidateRootCauseDepth(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name         string
		text         string
		wantValid    bool
		wantIssues   int
		wantContains string
	}{
		{
			name:      "empty root cause is valid",
			text:      "",
			wantValid: true,
		},
		{
			name:         "generic shallow analysis is blocked",
			text:         "Operator error caused the issue",
			wantValid:    false,
			wantIssues:   1,
			wantContains: "too generic",
		},
		{
			name:         "shallow but specific analysis only warns",
			text:         "The sensor drifted because of temperature variation.",
			wantValid:    true,
			wantIssues:   1,
			wantContains: "more depth",
		},
		{
			name:      "generic phrasing redeemed by causal depth",
			text:      "The label was wrong because the artwork file was outdated, due to the change request not reaching the print room; the reason was a missing handover step.",
			wantValid: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := engine.ValidateRootCauseDepth(tc.text)
			if result.Valid != tc.wantValid {
				t.Fatalf("Valid = %v, want %v (issues: %+v)", result.Valid, tc.wantValid, result.Issues)
			}
			if len(result.Issues) != tc.wantIssues {
				t.Fatalf("issue count = %d, want %d (issues: %+v)", len(result.Issues), tc.wantIssues, result.Issues)
			}
			if tc.wantContains != "" && !strings.Contains(result.Issues[0].Message, tc.wantContains) {
				t.Errorf("message %q does not mention %q", result.Issues[0].Message, tc.wantContains)
			}
		})
	}
}

func TestValidateCorrectiveActionSpecificity(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("empty corrective action is valid", func(t *testing.T) {
		result := engine.ValidateCorrectiveActionSpecificity("")
		if !result.Valid || len(result.Issues) != 0 {
			t.Fatalf("expected clean pass, got %+v", result)
		}
	})

	t.Run("no action verbs blocks", func(t *testing.T) {
		result := engine.ValidateCorrectiveActionSpecificity("Will fix it as soon as possible.")
		if result.Valid {
			t.Fatal("expected invalid result")
		}
		if len(result.MissingRequirements) != 4 {
			t.Errorf("MissingRequirements = %v, want all four", result.MissingRequirements)
		}
		if result.Issues[0].Severity != SeverityError {
			t.Errorf("verb shortfall with zero verbs should be an error, got %s", result.Issues[0].Severity)
		}
	})

	t.Run("one verb only warns", func(t *testing.T) {
		result := engine.ValidateCorrectiveActionSpecificity("Train the night shift on the packing steps.")
		if !result.Valid {
			t.Fatalf("single verb should not block: %+v", result.Issues)
		}
		if result.Issues[0].Severity != SeverityWarning {
			t.Errorf("verb shortfall with one verb should warn, got %s", result.Issues[0].Severity)
		}
	})

	t.Run("complete corrective action passes cleanly", func(t *testing.T) {
		text := "Implement a new label check per SOP 4.2, train staff, and verify results via weekly audit within 7 days."
		result := engine.ValidateCorrectiveActionSpecificity(text)
		if !result.Valid || len(result.Issues) != 0 {
			t.Fatalf("expected clean pass, got %+v", result)
		}
	})
}

func TestCheckSubmission(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("poor NCA submission merges findings from every check", func(t *testing.T) {
		sub := &forms.NCASubmission{
			NCType:            forms.CategoryFinishedGoods,
			NCDescription:     "Product was bad",
			RootCauseAnalysis: "Operator error caused the issue",
			CorrectiveActText: "Will fix it",
		}
		result := engine.CheckSubmission(sub)
		if result.Valid {
			t.Fatal("expected invalid result")
		}
		fields := make(map[string]bool)
		for _, issue := range result.Issues {
			fields[issue.Field] = true
		}
		for _, want := range []string{FieldDescription, FieldRootCause, FieldCorrectiveAction} {
			if !fields[want] {
				t.Errorf("no issue reported against %s: %+v", want, result.Issues)
			}
		}
		if len(result.VaguePhrases) == 0 {
			t.Error("expected vague phrases for 'bad'")
		}
	})

	t.Run("results are deterministic", func(t *testing.T) {
		sub := &forms.NCASubmission{
			NCType:        forms.CategoryRawMaterial,
			NCDescription: "Some stuff was broken somewhere",
		}
		first := engine.CheckSubmission(sub)
		second := engine.CheckSubmission(sub)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("same input produced different results:\n%+v\n%+v", first, second)
		}
	})

	t.Run("MJC issues carry the MJC field name", func(t *testing.T) {
		sub := &forms.MJCSubmission{WorkDescription: "Fixed it"}
		result := engine.CheckSubmission(sub)
		if result.Valid {
			t.Fatal("expected invalid result")
		}
		for _, issue := range result.Issues {
			if issue.Field == FieldDescription {
				t.Errorf("MJC issue reported against NCA field: %+v", issue)
			}
		}
	})

	t.Run("clean submission passes", func(t *testing.T) {
		sub := &forms.NCASubmission{
			NCType:        forms.CategoryFinishedGoods,
			NCDescription: completeDescription,
		}
		result := engine.CheckSubmission(sub)
		if !result.Valid {
			t.Fatalf("expected valid result, got issues: %+v", result.Issues)
		}
	})
}

func TestRequireSpecificDetails(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name      string
		field     string
		text      string
		category  forms.NCACategory
		wantValid bool
		wantField string
	}{
		{
			name:      "complete description passes",
			field:     FieldDescription,
			text:      completeDescription,
			category:  forms.CategoryFinishedGoods,
			wantValid: true,
		},
		{
			name:      "short work description fails against its own field",
			field:     FieldWorkDescription,
			text:      "Fixed it",
			category:  forms.CategoryOther,
			wantValid: false,
			wantField: FieldWorkDescription,
		},
		{
			name:      "shallow generic root cause fails",
			field:     FieldRootCause,
			text:      "Operator error",
			category:  forms.CategoryOther,
			wantValid: false,
			wantField: FieldRootCause,
		},
		{
			name:      "corrective action without verbs fails",
			field:     FieldCorrectiveAction,
			text:      "It will not happen again",
			category:  forms.CategoryOther,
			wantValid: false,
			wantField: FieldCorrectiveAction,
		},
		{
			name:      "unknown field only gets the vague scan",
			field:     "machine_equipment",
			text:      "Some issues with the filler",
			category:  forms.CategoryOther,
			wantValid: true,
			wantField: "machine_equipment",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := engine.RequireSpecificDetails(tc.field, tc.text, tc.category)
			if result.Valid != tc.wantValid {
				t.Fatalf("Valid = %v, want %v (issues: %+v)", result.Valid, tc.wantValid, result.Issues)
			}
			for _, issue := range result.Issues {
				if tc.wantField != "" && issue.Field != tc.wantField {
					t.Errorf("issue field = %s, want %s", issue.Field, tc.wantField)
				}
			}
		})
	}

	t.Run("vague description merges phrases with completeness findings", func(t *testing.T) {
		result := engine.RequireSpecificDetails(FieldDescription, "Product was bad", forms.CategoryFinishedGoods)
		if result.Valid {
			t.Fatal("expected invalid result")
		}
		if len(result.VaguePhrases) == 0 {
			t.Error("expected vague phrases for 'bad'")
		}
		if len(result.MissingRequirements) == 0 {
			t.Error("expected missing narrative elements")
		}
	})
}

func TestRuleChecks_AreIdempotent(t *testing.T) {
	engine := newTestEngine(t)
	description := "Maybe some product looked bad near the line at 09:30, batch B-2024-0199."
	rootCause := "Operator error caused the issue"
	action := "Will fix it soon"

	if first, second := engine.ValidateDescriptionCompleteness(description, forms.CategoryIncident),
		engine.ValidateDescriptionCompleteness(description, forms.CategoryIncident); !reflect.DeepEqual(first, second) {
		t.Errorf("description check diverged:\n%+v\n%+v", first, second)
	}
	if first, second := engine.DetectVagueLanguage(description),
		engine.DetectVagueLanguage(description); !reflect.DeepEqual(first, second) {
		t.Errorf("vague scan diverged:\n%v\n%v", first, second)
	}
	if first, second := engine.ValidateRootCauseDepth(rootCause),
		engine.ValidateRootCauseDepth(rootCause); !reflect.DeepEqual(first, second) {
		t.Errorf("root cause check diverged:\n%+v\n%+v", first, second)
	}
	if first, second := engine.ValidateCorrectiveActionSpecificity(action),
		engine.ValidateCorrectiveActionSpecificity(action); !reflect.DeepEqual(first, second) {
		t.Errorf("corrective action check diverged:\n%+v\n%+v", first, second)
	}
	if first, second := engine.RequireSpecificDetails(FieldRootCause, rootCause, forms.CategoryOther),
		engine.RequireSpecificDetails(FieldRootCause, rootCause, forms.CategoryOther); !reflect.DeepEqual(first, second) {
		t.Errorf("field composite diverged:\n%+v\n%+v", first, second)
	}
}
