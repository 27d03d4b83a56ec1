// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides request and response types for the
// orchestrator HTTP surface.
//
// Requests carry the submission as raw JSON next to a form_type
// discriminant; DecodeSubmission resolves the union to the concrete
// forms type. Validation beyond gin's binding tags goes through the
// shared validator instance so custom rules live in one place.
package datatypes

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/forms"
)

// =============================================================================
// Limits
// =============================================================================

const (
	// MaxFieldTextBytes is the maximum size of a single free-text field.
	// Checked in bytes, not runes, to bound memory use.
	MaxFieldTextBytes = 32 * 1024 // 32KB

	// MaxSubmissionBytes is the maximum size of a submission payload.
	MaxSubmissionBytes = 256 * 1024 // 256KB
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// qualityValidate is the validator instance for quality datatypes.
var qualityValidate *validator.Validate

func init() {
	qualityValidate = validator.New()
	_ = qualityValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes checks that a string field does not exceed
// MaxFieldTextBytes. Byte length, not rune count.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxFieldTextBytes
}

// Validate runs the shared validator against a datatypes struct.
func Validate(v any) error {
	return qualityValidate.Struct(v)
}

// =============================================================================
// Submission Decoding
// =============================================================================

// DecodeSubmission resolves the form_type discriminant and unmarshals
// the raw submission payload into the matching forms struct.
func DecodeSubmission(formType string, raw json.RawMessage) (forms.Submission, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("submission payload is empty")
	}
	if len(raw) > MaxSubmissionBytes {
		return nil, fmt.Errorf("submission payload exceeds %d bytes", MaxSubmissionBytes)
	}

	switch forms.FormType(formType) {
	case forms.FormNCA:
		var sub forms.NCASubmission
		if err := json.Unmarshal(raw, &sub); err != nil {
			return nil, fmt.Errorf("decoding nca submission: %w", err)
		}
		return &sub, nil
	case forms.FormMJC:
		var sub forms.MJCSubmission
		if err := json.Unmarshal(raw, &sub); err != nil {
			return nil, fmt.Errorf("decoding mjc submission: %w", err)
		}
		return &sub, nil
	default:
		return nil, fmt.Errorf("unknown form type %q", formType)
	}
}

// =============================================================================
// Request Types
// =============================================================================

// FieldQualityRequest asks for an inline quality score of one field.
type FieldQualityRequest struct {
	// FormType discriminates the submission union: "nca" or "mjc".
	FormType string `json:"form_type" binding:"required,oneof=nca mjc"`

	// Field is the rule-engine field name to check, e.g.
	// "nc_description", "root_cause_analysis", "corrective_action".
	Field string `json:"field" binding:"required"`

	// Role of the submitting user; strict roles get stricter clarity
	// scoring. Optional.
	Role string `json:"role,omitempty"`

	// Submission is the raw form payload, decoded per FormType.
	Submission json.RawMessage `json:"submission" binding:"required"`
}

// ValidateSubmissionRequest asks for a full submission-gate validation.
type ValidateSubmissionRequest struct {
	FormType string `json:"form_type" binding:"required,oneof=nca mjc"`

	// UserID identifies the submitter for attempt tracking and audit.
	// No identity verification happens here; the caller is trusted.
	UserID string `json:"user_id" binding:"required"`

	Role string `json:"role,omitempty"`

	// Confidential bypasses quality checks entirely. The bypass is
	// still audited.
	Confidential bool `json:"confidential,omitempty"`

	// AttemptNumber overrides the stored attempt counter when nonzero.
	AttemptNumber int `json:"attempt_number,omitempty" binding:"omitempty,min=1"`

	Submission json.RawMessage `json:"submission" binding:"required"`
}

// AssistRequest asks for AI writing assistance on one field.
type AssistRequest struct {
	FormType   string          `json:"form_type" binding:"required,oneof=nca mjc"`
	Field      string          `json:"field" binding:"required"`
	Current    string          `json:"current_text,omitempty" validate:"maxbytes"`
	Submission json.RawMessage `json:"submission" binding:"required"`
}

// ApprovalRequest records a manager override of a blocked submission.
type ApprovalRequest struct {
	// LogID is the enforcement log entry being overridden.
	LogID string `json:"log_id" binding:"required"`

	// ApproverID identifies the approving manager.
	ApproverID string `json:"approver_id" binding:"required"`

	// Justification must carry enough substance to audit; length is
	// enforced at the handler boundary.
	Justification string `json:"justification" binding:"required"`
}

// PatternQuery scopes an enforcement-history pattern analysis.
type PatternQuery struct {
	FormType string `form:"form_type" binding:"required,oneof=nca mjc"`
	FormID   string `form:"form_id" binding:"required"`
	UserID   string `form:"user_id" binding:"required"`
}

// =============================================================================
// Response Types
// =============================================================================

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RateLimitedResponse is returned with 429 when the oracle window is
// exhausted. RetryAfter is in seconds.
type RateLimitedResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after_seconds"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
