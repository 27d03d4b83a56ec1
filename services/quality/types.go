// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package quality

import (
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/enforcement"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/scoring"
)

// QualityScore is the user-facing score for a field or submission.
// Breakdown carries the weighted contributions of the five components,
// so the values sum to Score (give or take rounding), not the raw
// 0-100 component scores.
// Seq increases monotonically per field check on a service; callers
// displaying live feedback discard results whose Seq is older than the
// newest one they have seen for the field.
type QualityScore struct {
	Score        int               `json:"score"`
	ThresholdMet bool              `json:"threshold_met"`
	Breakdown    scoring.Breakdown `json:"breakdown"`
	Seq          int64             `json:"seq,omitempty"`
}

// ValidationResult is the final outcome of a submission validation
// call. Constructed once per call and returned to the caller; the audit
// emitter persists its own record separately.
type ValidationResult struct {
	Valid              bool                        `json:"valid"`
	ReadyForSubmission bool                        `json:"ready_for_submission"`
	QualityAssessment  QualityScore                `json:"quality_assessment"`
	Requirements       []enforcement.Requirement   `json:"requirements,omitempty"`
	Errors             []enforcement.BlockingError `json:"errors"`
	Warnings           []enforcement.Warning       `json:"warnings,omitempty"`
	EnforcementLevel   enforcement.Level           `json:"enforcement_level,omitempty"`
	EscalationMessage  string                      `json:"escalation_message,omitempty"`
	AttemptNumber      int                         `json:"attempt_number,omitempty"`
	RequiresApproval   bool                        `json:"requires_manager_approval"`
}

// Suggestion is a writing-assistance response for one field.
type Suggestion struct {
	Text       string `json:"text"`
	Field      string `json:"field"`
	Confidence string `json:"confidence"`
}

// Depressed scores returned on rule-phase short circuits and
// enforcement blocks. The breakdowns are fixed contribution tables, not
// computed: the point is a visibly poor score, stable across runs.
var (
	descriptionFailScore = QualityScore{
		Score: 50,
		Breakdown: scoring.Breakdown{
			Completeness: 10, Accuracy: 10, Clarity: 10, HazardIdentification: 10, Evidence: 10,
		},
	}
	rootCauseFailScore = QualityScore{
		Score: 55,
		Breakdown: scoring.Breakdown{
			Completeness: 15, Accuracy: 15, Clarity: 10, HazardIdentification: 10, Evidence: 5,
		},
	}
	correctiveActionFailScore = QualityScore{
		Score: 60,
		Breakdown: scoring.Breakdown{
			Completeness: 20, Accuracy: 15, Clarity: 15, HazardIdentification: 5, Evidence: 5,
		},
	}
	blockedScore = QualityScore{
		Score: 40,
		Breakdown: scoring.Breakdown{
			Completeness: 10, Accuracy: 10, Clarity: 10, HazardIdentification: 5, Evidence: 5,
		},
	}
	approvalRequiredScore = QualityScore{
		Score: 30,
		Breakdown: scoring.Breakdown{
			Completeness: 10, Accuracy: 10, Clarity: 10, HazardIdentification: 5, Evidence: 5,
		},
	}
	bypassScore = QualityScore{
		Score:        100,
		ThresholdMet: true,
		Breakdown: scoring.Breakdown{
			Completeness: 30, Accuracy: 25, Clarity: 20, HazardIdentification: 15, Evidence: 10,
		},
	}
)
