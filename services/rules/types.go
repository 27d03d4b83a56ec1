// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rules

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Severity grades a validation issue. Only two grades exist: errors can
// block submission (depending on the enforcement level), warnings are
// always advisory.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// UnmarshalYAML rejects severities outside the known set.
func (s *Severity) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch Severity(raw) {
	case SeverityError, SeverityWarning:
		*s = Severity(raw)
		return nil
	default:
		return fmt.Errorf("invalid value for Severity: %q", raw)
	}
}

// ValidationIssue is one structured finding against a submitted field.
// Issues are created by the rule engine or the AI oracle, never mutated,
// and consumed by the enforcement policy and the audit emitter.
type ValidationIssue struct {
	Field             string   `json:"field"`
	Message           string   `json:"message"`
	Severity          Severity `json:"severity"`
	StandardReference string   `json:"standard_reference,omitempty"`
	ExampleFix        string   `json:"example_fix,omitempty"`
}

// Result is the outcome of a single rule check. Valid is false only when
// at least one error-severity issue is present; warnings alone never
// invalidate.
type Result struct {
	Valid               bool              `json:"valid"`
	Issues              []ValidationIssue `json:"issues"`
	MissingRequirements []string          `json:"missing_requirements,omitempty"`
	VaguePhrases        []string          `json:"vague_phrases,omitempty"`
}

// Field names used in issues, matching the form schema.
const (
	FieldDescription      = "nc_description"
	FieldWorkDescription  = "description_required"
	FieldRootCause        = "root_cause_analysis"
	FieldCorrectiveAction = "corrective_action"
)

// =============================================================================
// Vocabulary file schema
// =============================================================================

// vocabularyFile mirrors the embedded quality_vocabulary.yaml.
type vocabularyFile struct {
	Categories        categoryTable      `yaml:"categories"`
	NarrativeElements []narrativePattern `yaml:"narrative_elements"`
	VaguePatterns     []vaguePattern     `yaml:"vague_patterns"`
	RootCause         rootCauseTable     `yaml:"root_cause"`
	CorrectiveAction  actionTable        `yaml:"corrective_action"`
}

type categoryTable struct {
	MinimumLengths map[string]int `yaml:"minimum_lengths"`
	DefaultMinimum int            `yaml:"default_minimum"`
	RequireWhen    []string       `yaml:"require_when"`
	RequireBatch   []string       `yaml:"require_batch"`
}

type narrativePattern struct {
	ID       string `yaml:"id"`
	Label    string `yaml:"label"`
	Regex    string `yaml:"regex"`
	compiled *regexp.Regexp
}

type vaguePattern struct {
	ID              string `yaml:"id"`
	Label           string `yaml:"label"`
	Regex           string `yaml:"regex"`
	RequiresNoDigit bool   `yaml:"requires_no_digits"`
	compiled        *regexp.Regexp
}

type rootCauseTable struct {
	CausalMarkers  string   `yaml:"causal_markers"`
	GenericPhrases []string `yaml:"generic_phrases"`
	MinimumMarkers int      `yaml:"minimum_markers"`
	markers        *regexp.Regexp
	generic        []*regexp.Regexp
}

type actionTable struct {
	ActionVerbs        string `yaml:"action_verbs"`
	MinimumActionVerbs int    `yaml:"minimum_action_verbs"`
	ProcedureReference string `yaml:"procedure_reference"`
	Verification       string `yaml:"verification"`
	Timeline           string `yaml:"timeline"`
	verbs              *regexp.Regexp
	procedure          *regexp.Regexp
	verification       *regexp.Regexp
	timeline           *regexp.Regexp
}

// compile builds every regex in the vocabulary up front so a malformed
// pattern is caught at engine construction, not mid-validation.
func (v *vocabularyFile) compile() error {
	for i := range v.NarrativeElements {
		re, err := regexp.Compile(v.NarrativeElements[i].Regex)
		if err != nil {
			return fmt.Errorf("failed to compile narrative pattern %q: %w", v.NarrativeElements[i].ID, err)
		}
		v.NarrativeElements[i].compiled = re
	}
	for i := range v.VaguePatterns {
		re, err := regexp.Compile(v.VaguePatterns[i].Regex)
		if err != nil {
			return fmt.Errorf("failed to compile vague pattern %q: %w", v.VaguePatterns[i].ID, err)
		}
		v.VaguePatterns[i].compiled = re
	}
	re, err := regexp.Compile(v.RootCause.CausalMarkers)
	if err != nil {
		return fmt.Errorf("failed to compile causal marker pattern: %w", err)
	}
	v.RootCause.markers = re
	for _, pattern := range v.RootCause.GenericPhrases {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("failed to compile generic phrase pattern %q: %w", pattern, err)
		}
		v.RootCause.generic = append(v.RootCause.generic, re)
	}
	if v.CorrectiveAction.verbs, err = regexp.Compile(v.CorrectiveAction.ActionVerbs); err != nil {
		return fmt.Errorf("failed to compile action verb pattern: %w", err)
	}
	if v.CorrectiveAction.procedure, err = regexp.Compile(v.CorrectiveAction.ProcedureReference); err != nil {
		return fmt.Errorf("failed to compile procedure reference pattern: %w", err)
	}
	if v.CorrectiveAction.verification, err = regexp.Compile(v.CorrectiveAction.Verification); err != nil {
		return fmt.Errorf("failed to compile verification pattern: %w", err)
	}
	if v.CorrectiveAction.timeline, err = regexp.Compile(v.CorrectiveAction.Timeline); err != nil {
		return fmt.Errorf("failed to compile timeline pattern: %w", err)
	}
	return nil
}
