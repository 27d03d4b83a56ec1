// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package rules implements the deterministic first phase of quality
// validation: regex-driven checks against free-text form fields. The
// vocabulary (category length minimums, narrative element patterns,
// vague-language patterns, root-cause and corrective-action heuristics)
// is embedded YAML, so the pipeline has no runtime file dependencies and
// keeps working when the AI oracle does not.
//
// All checks are pure functions of their input text: the same text always
// produces the same issues, and a text that passes is never failed by a
// longer text that contains it plus more detail.
package rules

import (
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/forms"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/rules/vocabulary"
)

// Engine evaluates rule checks against submission text. Construct with
// NewEngine; the zero value is not usable. Engine is safe for concurrent
// use, all state is read-only after construction.
type Engine struct {
	vocab vocabularyFile
	log   *slog.Logger
}

// NewEngine parses and compiles the embedded vocabulary. An error here
// means the embedded YAML is malformed, which is a build defect.
func NewEngine() (*Engine, error) {
	return NewEngineWithVocabulary(vocabulary.QualityVocabulary)
}

// NewEngineWithVocabulary builds an engine from caller-supplied YAML.
// Tests use this to exercise vocabulary edge cases without touching the
// embedded tables.
func NewEngineWithVocabulary(raw []byte) (*Engine, error) {
	var vocab vocabularyFile
	if err := yaml.Unmarshal(raw, &vocab); err != nil {
		return nil, fmt.Errorf("failed to parse quality vocabulary: %w", err)
	}
	if err := vocab.compile(); err != nil {
		return nil, err
	}
	log := slog.Default().With(slog.String("component", "rules_engine"))
	log.Debug("Rule engine initialized",
		slog.Int("narrative_elements", len(vocab.NarrativeElements)),
		slog.Int("vague_patterns", len(vocab.VaguePatterns)))
	return &Engine{vocab: vocab, log: log}, nil
}

// minimumLength resolves the category's minimum description length,
// falling back to the default for unknown categories.
func (e *Engine) minimumLength(category forms.NCACategory) int {
	if n, ok := e.vocab.Categories.MinimumLengths[string(category)]; ok {
		return n
	}
	return e.vocab.Categories.DefaultMinimum
}

func containsCategory(list []string, category forms.NCACategory) bool {
	for _, c := range list {
		if c == string(category) {
			return true
		}
	}
	return false
}

// =============================================================================
// Description completeness
// =============================================================================

// ValidateDescriptionCompleteness checks a description against the
// category's minimum length and the narrative element patterns (what,
// when, where, quantity, batch). Length shortfall is an error. A missing
// narrative element is one warning each, except "when" for categories
// that require a time of occurrence and "batch" for categories that
// require traceability, which are errors.
func (e *Engine) ValidateDescriptionCompleteness(text string, category forms.NCACategory) Result {
	result := Result{Valid: true}
	trimmed := strings.TrimSpace(text)

	min := e.minimumLength(category)
	if len(trimmed) < min {
		result.Issues = append(result.Issues, ValidationIssue{
			Field:             FieldDescription,
			Severity:          SeverityError,
			Message:           fmt.Sprintf("Description must be at least %d characters for %s non-conformances. Current length: %d characters.", min, category, len(trimmed)),
			StandardReference: "BRCGS 5.7.2",
			ExampleFix:        `Example: "Found 3 damaged cartons (batch B-2024-0156) in receiving area at 09:30. Cardboard crushed on one side, product exposed."`,
		})
	}

	for _, element := range e.vocab.NarrativeElements {
		if element.compiled.MatchString(trimmed) {
			continue
		}
		issue := ValidationIssue{
			Field:             FieldDescription,
			Severity:          SeverityWarning,
			Message:           fmt.Sprintf("Description incomplete. Please add: %s.", element.Label),
			StandardReference: "BRCGS 5.7.2",
		}
		switch element.ID {
		case "when":
			if containsCategory(e.vocab.Categories.RequireWhen, category) {
				issue.Severity = SeverityError
				issue.Message = `Incident descriptions must state when it occurred (e.g., "at 14:30" or "on Monday").`
			}
		case "batch":
			if containsCategory(e.vocab.Categories.RequireBatch, category) {
				issue.Severity = SeverityError
				issue.Message = "Include the batch, lot, or carton number so the affected product can be traced."
			}
		}
		result.Issues = append(result.Issues, issue)
		result.MissingRequirements = append(result.MissingRequirements, element.Label)
	}

	result.Valid = !hasErrors(result.Issues)
	return result
}

// =============================================================================
// Vague language
// =============================================================================

// DetectVagueLanguage returns the distinct vague phrases found in the
// text, lowercased, in vocabulary order. Patterns flagged
// requires_no_digits only fire when the text carries no digits at all:
// "approximately 40" is anchored, bare "approximately" is not.
func (e *Engine) DetectVagueLanguage(text string) []string {
	hasDigits := strings.ContainsAny(text, "0123456789")
	seen := make(map[string]bool)
	var phrases []string
	for _, pattern := range e.vocab.VaguePatterns {
		if pattern.RequiresNoDigit && hasDigits {
			continue
		}
		for _, match := range pattern.compiled.FindAllString(text, -1) {
			phrase := strings.ToLower(match)
			if !seen[phrase] {
				seen[phrase] = true
				phrases = append(phrases, phrase)
			}
		}
	}
	return phrases
}

// vagueLanguageResult wraps DetectVagueLanguage as a Result: one warning
// issue naming every phrase found. Vagueness alone never blocks.
func (e *Engine) vagueLanguageResult(text, field string) Result {
	phrases := e.DetectVagueLanguage(text)
	result := Result{Valid: true, VaguePhrases: phrases}
	if len(phrases) > 0 {
		result.Issues = append(result.Issues, ValidationIssue{
			Field:    field,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("Description contains vague language (%s). Replace with specific details, measurements, and quantities.", strings.Join(phrases, ", ")),
		})
	}
	return result
}

// =============================================================================
// Root cause depth
// =============================================================================

// ValidateRootCauseDepth applies a 5-Why style heuristic: causal markers
// (why, because, due to, caused by, ...) approximate analysis depth, and
// generic blame phrases ("operator error", "machine issue") indicate a
// non-answer. Generic phrasing inside an otherwise deep analysis is
// tolerated. An empty root cause is valid: the field is optional and
// field-level requiredness is the form schema's concern.
func (e *Engine) ValidateRootCauseDepth(text string) Result {
	result := Result{Valid: true}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return result
	}

	markers := len(e.vocab.RootCause.markers.FindAllString(trimmed, -1))
	generic := false
	for _, re := range e.vocab.RootCause.generic {
		if re.MatchString(trimmed) {
			generic = true
			break
		}
	}

	switch {
	case generic && markers < e.vocab.RootCause.MinimumMarkers:
		result.Issues = append(result.Issues, ValidationIssue{
			Field:             FieldRootCause,
			Severity:          SeverityError,
			Message:           `Root cause analysis is too generic. Instead of "operator error", explain why the error was possible: what condition, process gap, or missing control allowed it?`,
			StandardReference: "BRCGS 3.7.2",
			ExampleFix:        `Example: "Label misprint occurred because the artwork file was outdated, due to the change request not reaching the print room, caused by a missing step in SOP 4.2."`,
		})
		result.Valid = false
	case markers < e.vocab.RootCause.MinimumMarkers:
		result.Issues = append(result.Issues, ValidationIssue{
			Field:             FieldRootCause,
			Severity:          SeverityWarning,
			Message:           `Root cause analysis needs more depth. Apply the 5-Why method: add at least one more causal link ("because", "due to", "caused by") to reach the underlying cause.`,
			StandardReference: "BRCGS 3.7.2",
		})
	}
	return result
}

// =============================================================================
// Corrective action specificity
// =============================================================================

// ValidateCorrectiveActionSpecificity checks that a corrective action
// names concrete actions (distinct action verbs), references a procedure
// or standard, states how completion will be verified, and gives a
// timeline. Only a total absence of action verbs blocks; everything else
// is advisory. An empty corrective action is valid, as with root cause.
func (e *Engine) ValidateCorrectiveActionSpecificity(text string) Result {
	result := Result{Valid: true}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return result
	}

	verbs := make(map[string]bool)
	for _, v := range e.vocab.CorrectiveAction.verbs.FindAllString(trimmed, -1) {
		verbs[strings.ToLower(v)] = true
	}

	if len(verbs) < e.vocab.CorrectiveAction.MinimumActionVerbs {
		severity := SeverityWarning
		if len(verbs) == 0 {
			severity = SeverityError
		}
		result.Issues = append(result.Issues, ValidationIssue{
			Field:             FieldCorrectiveAction,
			Severity:          severity,
			Message:           fmt.Sprintf(`Corrective action must include at least %d specific actions, using verbs like "implement", "train", or "calibrate".`, e.vocab.CorrectiveAction.MinimumActionVerbs),
			StandardReference: "BRCGS 3.7.2",
		})
		result.MissingRequirements = append(result.MissingRequirements, "specific actions")
	}
	if !e.vocab.CorrectiveAction.procedure.MatchString(trimmed) {
		result.Issues = append(result.Issues, ValidationIssue{
			Field:    FieldCorrectiveAction,
			Severity: SeverityWarning,
			Message:  `Reference the specific procedure or standard (e.g., "SOP 4.2" or "BRCGS section 5.7").`,
		})
		result.MissingRequirements = append(result.MissingRequirements, "procedure reference")
	}
	if !e.vocab.CorrectiveAction.verification.MatchString(trimmed) {
		result.Issues = append(result.Issues, ValidationIssue{
			Field:    FieldCorrectiveAction,
			Severity: SeverityWarning,
			Message:  `State how the action will be verified (e.g., "QA to confirm via weekly audit").`,
		})
		result.MissingRequirements = append(result.MissingRequirements, "verification method")
	}
	if !e.vocab.CorrectiveAction.timeline.MatchString(trimmed) {
		result.Issues = append(result.Issues, ValidationIssue{
			Field:    FieldCorrectiveAction,
			Severity: SeverityWarning,
			Message:  `Give a timeline for completion (e.g., "within 7 days" or "by Friday").`,
		})
		result.MissingRequirements = append(result.MissingRequirements, "timeline")
	}

	result.Valid = !hasErrors(result.Issues)
	return result
}

// =============================================================================
// Composite check
// =============================================================================

// CheckSubmission runs every rule check against a submission and merges
// the results. NCA submissions use their declared category; MJC
// submissions use the default length rules and report against their own
// description field name.
func (e *Engine) CheckSubmission(sub forms.Submission) Result {
	category := forms.CategoryOther
	field := FieldWorkDescription
	if nca, ok := sub.(*forms.NCASubmission); ok {
		category = nca.Category()
		field = FieldDescription
	}

	merged := e.ValidateDescriptionCompleteness(sub.Description(), category)
	if field != FieldDescription {
		for i := range merged.Issues {
			merged.Issues[i].Field = field
		}
	}

	for _, r := range []Result{
		e.vagueLanguageResult(sub.Description(), field),
		e.ValidateRootCauseDepth(sub.RootCause()),
		e.ValidateCorrectiveActionSpecificity(sub.CorrectiveAction()),
	} {
		merged.Issues = append(merged.Issues, r.Issues...)
		merged.MissingRequirements = append(merged.MissingRequirements, r.MissingRequirements...)
		merged.VaguePhrases = append(merged.VaguePhrases, r.VaguePhrases...)
	}

	merged.Valid = !hasErrors(merged.Issues)
	if !merged.Valid {
		e.log.Debug("Rule check failed",
			slog.String("form_type", string(sub.Type())),
			slog.Int("issues", len(merged.Issues)))
	}
	return merged
}

// RequireSpecificDetails runs the checks that apply to a single field
// and merges their findings. Description fields get completeness plus
// the vague language scan, root cause gets depth analysis, corrective
// action gets the specificity check, and any other field gets the
// vague language scan alone.
func (e *Engine) RequireSpecificDetails(field, text string, category forms.NCACategory) Result {
	switch field {
	case FieldDescription, FieldWorkDescription:
		merged := e.ValidateDescriptionCompleteness(text, category)
		if field != FieldDescription {
			for i := range merged.Issues {
				merged.Issues[i].Field = field
			}
		}
		vague := e.vagueLanguageResult(text, field)
		merged.Issues = append(merged.Issues, vague.Issues...)
		merged.VaguePhrases = append(merged.VaguePhrases, vague.VaguePhrases...)
		merged.Valid = !hasErrors(merged.Issues)
		return merged
	case FieldRootCause:
		return e.ValidateRootCauseDepth(text)
	case FieldCorrectiveAction:
		return e.ValidateCorrectiveActionSpecificity(text)
	default:
		return e.vagueLanguageResult(text, field)
	}
}

func hasErrors(issues []ValidationIssue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
