// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package enforcement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/forms"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/rules"
)

// Action is what the pipeline did with a validation attempt.
type Action string

const (
	ActionHintShown               Action = "hint_shown"
	ActionRequirementPromoted     Action = "requirement_promoted"
	ActionErrorEscalated          Action = "error_escalated"
	ActionManagerApprovalRequired Action = "manager_approval_required"
	ActionSubmissionBlocked       Action = "submission_blocked"
	ActionSubmissionAllowed       Action = "submission_allowed"
)

// AuditEntry is one enforcement decision, durably recorded. Internal
// only: AI involvement is logged here but never exposed to users.
type AuditEntry struct {
	ID                       string                  `json:"id"`
	FormType                 forms.FormType          `json:"form_type"`
	FormID                   string                  `json:"form_id,omitempty"`
	UserID                   string                  `json:"user_id"`
	AttemptNumber            int                     `json:"attempt_number"`
	Level                    Level                   `json:"enforcement_level"`
	IssuesFound              []rules.ValidationIssue `json:"issues_found"`
	RequirementsMissing      []Requirement           `json:"requirements_missing,omitempty"`
	ErrorsBlocking           []BlockingError         `json:"errors_blocking,omitempty"`
	Action                   Action                  `json:"action_taken"`
	ManagerApprovalRequested bool                    `json:"manager_approval_requested"`
	Justification            string                  `json:"manager_approval_justification,omitempty"`
	Timestamp                time.Time               `json:"timestamp"`
}

// ErrUnknownLogID rejects approvals that reference an enforcement log
// entry that was never recorded.
var ErrUnknownLogID = errors.New("unknown enforcement log id")

// ManagerApproval is a manager's recorded decision on a gated attempt.
type ManagerApproval struct {
	LogID     string    `json:"log_id"`
	ManagerID string    `json:"manager_id"`
	Approved  bool      `json:"approved"`
	Notes     string    `json:"notes,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DecisionTrace is the optional explainability record: per-issue
// natural-language rationale for the decision the user saw.
type DecisionTrace struct {
	ID        string         `json:"id"`
	FormType  forms.FormType `json:"form_type"`
	FormID    string         `json:"form_id,omitempty"`
	UserID    string         `json:"user_id"`
	Attempt   int            `json:"attempt_number"`
	Level     Level          `json:"enforcement_level"`
	Steps     []TraceStep    `json:"steps"`
	Timestamp time.Time      `json:"timestamp"`
}

// TraceStep explains one issue in the decision.
type TraceStep struct {
	Field     string `json:"field"`
	Rationale string `json:"rationale"`
}

// AttemptSource reads the current attempt count for (form type, form
// id, user). The store, not this package, is the source of truth.
type AttemptSource interface {
	GetAttemptNumber(ctx context.Context, formType forms.FormType, formID, userID string) (int, error)
}

// ActionRecorder appends enforcement decisions to the audit log and
// returns the stored entry's id.
type ActionRecorder interface {
	RecordEnforcementAction(ctx context.Context, entry AuditEntry) (string, error)
}

// TraceRecorder stores explainability traces.
type TraceRecorder interface {
	RecordDecisionTrace(ctx context.Context, trace DecisionTrace) error
}

// ApprovalRecorder stores manager sign-off decisions against an audit
// log entry.
type ApprovalRecorder interface {
	RecordManagerApproval(ctx context.Context, approval ManagerApproval) error
}

// Emitter wraps an ActionRecorder with the pipeline's failure contract:
// an audit write failure is logged and swallowed, never propagated into
// the validation path. A user must not be blocked because the audit
// store is down.
type Emitter struct {
	store  ActionRecorder
	traces TraceRecorder
	log    *slog.Logger
}

// NewEmitter builds an emitter. traces may be nil when explainability
// is disabled.
func NewEmitter(store ActionRecorder, traces TraceRecorder, log *slog.Logger) *Emitter {
	if log == nil {
		log = slog.Default()
	}
	return &Emitter{
		store:  store,
		traces: traces,
		log:    log.With(slog.String("component", "audit_emitter")),
	}
}

// Emit records the entry, filling in ID and timestamp when unset.
// Returns the log id, or "" when the write failed.
func (e *Emitter) Emit(ctx context.Context, entry AuditEntry) string {
	if e.store == nil {
		return ""
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	id, err := e.store.RecordEnforcementAction(ctx, entry)
	if err != nil {
		e.log.Error("Failed to record enforcement action",
			slog.String("form_type", string(entry.FormType)),
			slog.String("form_id", entry.FormID),
			slog.Int("attempt", entry.AttemptNumber),
			slog.Any("error", err))
		return ""
	}
	return id
}

// EmitTrace records an explainability trace with the same swallow
// semantics as Emit. A no-op when tracing is disabled.
func (e *Emitter) EmitTrace(ctx context.Context, trace DecisionTrace) {
	if e.traces == nil {
		return
	}
	if trace.ID == "" {
		trace.ID = uuid.NewString()
	}
	if trace.Timestamp.IsZero() {
		trace.Timestamp = time.Now().UTC()
	}
	if err := e.traces.RecordDecisionTrace(ctx, trace); err != nil {
		e.log.Warn("Failed to record decision trace",
			slog.String("trace_id", trace.ID),
			slog.Any("error", err))
	}
}

// ActionFor derives the audit action from a decision.
func ActionFor(d Decision) Action {
	switch {
	case d.RequiresManagerApproval:
		return ActionManagerApprovalRequired
	case len(d.Errors) > 0:
		return ActionSubmissionBlocked
	case len(d.Requirements) > 0:
		return ActionHintShown
	default:
		return ActionSubmissionAllowed
	}
}
