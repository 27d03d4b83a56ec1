// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package enforcement maps validation issues and the submission attempt
// count to an enforcement decision: which issues merely advise, which
// block, and when manager approval becomes mandatory. The policy is a
// pure function of its inputs; attempt counts live in the audit store
// and are read fresh on every call.
package enforcement

import (
	"fmt"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/rules"
)

// Level is the enforcement strictness applied to one validation call.
type Level string

const (
	// LevelLenient treats every issue as advisory. First attempts land
	// here so users get guidance before pressure.
	LevelLenient Level = "lenient"
	// LevelStandard blocks on error-severity issues, advises on the rest.
	LevelStandard Level = "standard"
	// LevelStrict blocks on every remaining issue.
	LevelStrict Level = "strict"
	// LevelMandatoryApproval blocks on everything and requires a manager
	// to sign off before the submission can proceed.
	LevelMandatoryApproval Level = "mandatory-approval"
)

// Thresholds is the escalation curve: the highest attempt number served
// at each level. Attempts beyond StrictMaxAttempt require approval.
// Exposed as configuration so the curve can be tuned per site without
// code changes.
type Thresholds struct {
	LenientMaxAttempt  int `json:"lenient_max_attempt" yaml:"lenient_max_attempt"`
	StandardMaxAttempt int `json:"standard_max_attempt" yaml:"standard_max_attempt"`
	StrictMaxAttempt   int `json:"strict_max_attempt" yaml:"strict_max_attempt"`
}

// DefaultThresholds is the production curve: one free attempt, standard
// pressure through attempt 3, mandatory approval from attempt 4. The
// strict band is empty by default and exists for sites that want a
// block-everything stage before involving a manager.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LenientMaxAttempt:  1,
		StandardMaxAttempt: 3,
		StrictMaxAttempt:   3,
	}
}

// Requirement is an advisory item shown to the user as a checklist
// entry, optionally with the standard reference and a worked example.
type Requirement struct {
	Field      string `json:"field"`
	Message    string `json:"message"`
	Reference  string `json:"reference,omitempty"`
	ExampleFix string `json:"example_fix,omitempty"`
}

// BlockingError prevents submission until resolved or overridden.
type BlockingError struct {
	Field     string `json:"field"`
	Message   string `json:"message"`
	Reference string `json:"brcgs_requirement,omitempty"`
}

// Warning is purely informational.
type Warning struct {
	Field      string `json:"field"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Decision is the policy output for one validation call. It is derived
// state: nothing here is persisted except through the audit record.
type Decision struct {
	Level                   Level           `json:"enforcement_level"`
	Requirements            []Requirement   `json:"requirements"`
	Errors                  []BlockingError `json:"errors"`
	Warnings                []Warning       `json:"warnings,omitempty"`
	EscalationReason        string          `json:"escalation_reason,omitempty"`
	RequiresManagerApproval bool            `json:"requires_manager_approval"`
}

// Blocks reports whether the decision prevents submission as-is.
func (d Decision) Blocks() bool {
	return len(d.Errors) > 0 || d.RequiresManagerApproval
}

// Policy converts issues and attempt counts into decisions.
type Policy struct {
	thresholds Thresholds
}

// NewPolicy builds a policy over the given escalation curve.
func NewPolicy(t Thresholds) *Policy {
	return &Policy{thresholds: t}
}

// LevelFor resolves the enforcement level for an attempt number.
// Attempt numbers below 1 are treated as the first attempt.
func (p *Policy) LevelFor(attempt int) Level {
	if attempt < 1 {
		attempt = 1
	}
	switch {
	case attempt <= p.thresholds.LenientMaxAttempt:
		return LevelLenient
	case attempt <= p.thresholds.StandardMaxAttempt:
		return LevelStandard
	case attempt <= p.thresholds.StrictMaxAttempt:
		return LevelStrict
	default:
		return LevelMandatoryApproval
	}
}

// Decide maps issues through the attempt's enforcement level. An empty
// issue list always produces a clean, non-blocking decision regardless
// of attempt number.
func (p *Policy) Decide(issues []rules.ValidationIssue, attempt int) Decision {
	if attempt < 1 {
		attempt = 1
	}
	level := p.LevelFor(attempt)
	decision := Decision{Level: level}
	if attempt > 1 {
		decision.EscalationReason = fmt.Sprintf(
			"This is attempt %d. Previous attempts had similar issues that need to be addressed.", attempt)
	}

	for _, issue := range issues {
		switch level {
		case LevelLenient:
			decision.Requirements = append(decision.Requirements, Requirement{
				Field:      issue.Field,
				Message:    issue.Message,
				Reference:  issue.StandardReference,
				ExampleFix: issue.ExampleFix,
			})
		case LevelStandard:
			if issue.Severity == rules.SeverityError {
				decision.Errors = append(decision.Errors, BlockingError{
					Field:     issue.Field,
					Message:   issue.Message + " This is required for compliance.",
					Reference: issue.StandardReference,
				})
			} else {
				decision.Requirements = append(decision.Requirements, Requirement{
					Field:      issue.Field,
					Message:    issue.Message + " Please address this before submitting.",
					Reference:  issue.StandardReference,
					ExampleFix: issue.ExampleFix,
				})
			}
		case LevelStrict:
			decision.Errors = append(decision.Errors, BlockingError{
				Field:     issue.Field,
				Message:   issue.Message + " This must be addressed before submission.",
				Reference: issue.StandardReference,
			})
		case LevelMandatoryApproval:
			decision.Errors = append(decision.Errors, BlockingError{
				Field:     issue.Field,
				Message:   issue.Message + " Manager approval will be required to proceed.",
				Reference: issue.StandardReference,
			})
		}
	}

	decision.RequiresManagerApproval = level == LevelMandatoryApproval && len(issues) > 0
	return decision
}

// EscalationMessage is the user-facing banner for an attempt. Unlike the
// decision itself it speaks to the person, not the pipeline.
func (p *Policy) EscalationMessage(attempt int) string {
	if attempt < 1 {
		attempt = 1
	}
	switch {
	case attempt <= p.thresholds.LenientMaxAttempt:
		return "Please review the requirements below and update your submission."
	case attempt < p.thresholds.StandardMaxAttempt:
		return "Some requirements from your previous attempt still need attention. Please address these before submitting."
	case attempt == p.thresholds.StandardMaxAttempt:
		return "This submission still does not meet requirements. A manager's approval will be needed to proceed."
	default:
		return "Manager approval is required for this submission."
	}
}
