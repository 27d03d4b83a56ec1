// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package quality is the validation orchestrator: it sequences the rule
// engine, the AI oracle, the adaptive enforcement policy, and the audit
// emitter into one decision per field edit or submission attempt.
//
// Validation is framed to users as standard system requirements. AI
// involvement is logged internally but never surfaced in messages.
package quality

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/enforcement"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/forms"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/llm"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/rules"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/scoring"
)

// ErrUnknownField rejects field names the rule engine has no checks
// for. Callers at the HTTP boundary map it to a client error.
var ErrUnknownField = errors.New("unknown field")

// Oracle is the slice of the AI adapter this service consumes.
// *llm.Oracle implements it; tests substitute fakes.
type Oracle interface {
	InlineScore(ctx context.Context, field, text string) (int, error)
	Assess(ctx context.Context, sub forms.Submission, role string) (*llm.Assessment, error)
	Suggest(ctx context.Context, field, current string, sub forms.Submission) (string, error)
}

// Dependencies are the collaborators the service orchestrates.
type Dependencies struct {
	Rules    *rules.Engine
	Scorer   *scoring.Scorer
	Oracle   Oracle
	Policy   *enforcement.Policy
	Attempts enforcement.AttemptSource
	Emitter  *enforcement.Emitter
}

// Config tunes orchestration behavior.
type Config struct {
	// ExplainTraces enables decision trace emission.
	ExplainTraces bool
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Service orchestrates one validation pipeline. Safe for concurrent
// use; all per-call state is local.
type Service struct {
	rules    *rules.Engine
	scorer   *scoring.Scorer
	oracle   Oracle
	policy   *enforcement.Policy
	attempts enforcement.AttemptSource
	emitter  *enforcement.Emitter
	explain  bool
	log      *slog.Logger
	seq      atomic.Int64
}

// NewService wires the pipeline. Rules, Scorer, Oracle, and Policy are
// required; Attempts and Emitter may be nil for callers that manage
// attempts and auditing themselves (attempt defaults to 1, audit is
// skipped).
func NewService(deps Dependencies, cfg Config) (*Service, error) {
	if deps.Rules == nil || deps.Scorer == nil || deps.Oracle == nil || deps.Policy == nil {
		return nil, errors.New("rules, scorer, oracle, and policy are required")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		rules:    deps.Rules,
		scorer:   deps.Scorer,
		oracle:   deps.Oracle,
		policy:   deps.Policy,
		attempts: deps.Attempts,
		emitter:  deps.Emitter,
		explain:  cfg.ExplainTraces,
		log:      log.With(slog.String("component", "quality_service")),
	}, nil
}

// CheckFieldQuality scores one field for interactive feedback. Rule
// checks run first; an error-severity rule failure short-circuits with
// a depressed score so obvious problems never spend an AI call. Rate
// limit errors propagate to the caller with their retry delay.
func (s *Service) CheckFieldQuality(ctx context.Context, sub forms.Submission, field, role string) (QualityScore, error) {
	// Seq is drawn at call start, so a check issued later always
	// carries a higher number even if an older in-flight call finishes
	// after it. Callers keep the highest Seq per field.
	seq := s.seq.Add(1)
	text, category := s.fieldText(sub, field)

	switch field {
	case rules.FieldDescription, rules.FieldWorkDescription:
		// Empty text is the shortest possible failing description; it
		// must not reach the rate-limited oracle either.
		if result := s.rules.ValidateDescriptionCompleteness(text, category); !result.Valid {
			return stamped(descriptionFailScore, seq), nil
		}
	case rules.FieldRootCause:
		if result := s.rules.ValidateRootCauseDepth(text); !result.Valid {
			return stamped(rootCauseFailScore, seq), nil
		}
	case rules.FieldCorrectiveAction:
		if result := s.rules.ValidateCorrectiveActionSpecificity(text); !result.Valid {
			return stamped(correctiveActionFailScore, seq), nil
		}
	default:
		return QualityScore{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	score, err := s.oracle.InlineScore(ctx, field, text)
	if err != nil {
		return QualityScore{}, err
	}

	// Components come from the local scorer; the AI only refines the
	// headline number for the field being edited.
	local := s.scorer.Score(sub, role)
	return QualityScore{
		Score:        score,
		ThresholdMet: score >= s.scorer.Threshold(),
		Breakdown:    s.scorer.Contributions(local.Breakdown),
		Seq:          seq,
	}, nil
}

func stamped(score QualityScore, seq int64) QualityScore {
	score.Seq = seq
	return score
}

// fieldText resolves a field name to its text plus the NCA category
// when applicable.
func (s *Service) fieldText(sub forms.Submission, field string) (string, forms.NCACategory) {
	category := forms.CategoryOther
	if nca, ok := sub.(*forms.NCASubmission); ok {
		category = nca.Category()
	}
	switch field {
	case rules.FieldDescription, rules.FieldWorkDescription:
		return sub.Description(), category
	case rules.FieldRootCause:
		return sub.RootCause(), category
	case rules.FieldCorrectiveAction:
		return sub.CorrectiveAction(), category
	default:
		return "", category
	}
}

// ValidateOptions carries the per-call context for ValidateSubmission.
type ValidateOptions struct {
	UserID string
	Role   string
	// Confidential bypasses validation entirely; the bypass itself is
	// still audited.
	Confidential bool
	// AttemptNumber overrides the store lookup when nonzero.
	AttemptNumber int
}

// ValidateSubmission is the submission gate. Phases: rule checks,
// adaptive enforcement (with early return when blocked, saving the AI
// call), deep AI assessment, merge, audit. A failed audit write never
// invalidates the computed decision.
func (s *Service) ValidateSubmission(ctx context.Context, sub forms.Submission, opts ValidateOptions) (*ValidationResult, error) {
	formID := formIDOf(sub)
	attempt := s.resolveAttempt(ctx, sub.Type(), formID, opts)

	if opts.Confidential {
		result := &ValidationResult{
			Valid:              true,
			ReadyForSubmission: true,
			QualityAssessment:  bypassScore,
			Warnings: []enforcement.Warning{
				{Field: "form", Message: "Confidential mode: Quality checks bypassed"},
			},
			AttemptNumber: attempt,
		}
		s.audit(ctx, sub, opts, attempt, enforcement.Decision{}, nil, enforcement.ActionSubmissionAllowed)
		return result, nil
	}

	// Phase 1: rules. Always runs, no network.
	ruleResult := s.rules.CheckSubmission(sub)

	// Phase 2: enforcement.
	decision := s.policy.Decide(ruleResult.Issues, attempt)

	if decision.Blocks() {
		// Do not spend an AI call on a submission that already cannot
		// proceed.
		s.audit(ctx, sub, opts, attempt, decision, ruleResult.Issues, enforcement.ActionFor(decision))
		s.trace(ctx, sub, opts, attempt, decision, ruleResult.Issues)

		score := blockedScore
		if decision.RequiresManagerApproval {
			score = approvalRequiredScore
		}
		return &ValidationResult{
			Valid:              false,
			ReadyForSubmission: false,
			QualityAssessment:  score,
			Requirements:       decision.Requirements,
			Errors:             decision.Errors,
			Warnings:           decision.Warnings,
			EnforcementLevel:   decision.Level,
			EscalationMessage:  s.policy.EscalationMessage(attempt),
			AttemptNumber:      attempt,
			RequiresApproval:   decision.RequiresManagerApproval,
		}, nil
	}

	// Phase 3: deep AI assessment. The oracle degrades to a neutral
	// fallback on unavailability; rate limits propagate.
	assessment, err := s.oracle.Assess(ctx, sub, opts.Role)
	if err != nil {
		return nil, err
	}

	result := s.mergeAssessment(decision, assessment, attempt)

	s.audit(ctx, sub, opts, attempt, decision, ruleResult.Issues, actionForResult(result))
	s.trace(ctx, sub, opts, attempt, decision, ruleResult.Issues)
	return result, nil
}

// mergeAssessment folds the oracle's judgement into the final result.
// Rule-derived items come first, AI-derived items after, preserving the
// order users saw their earlier feedback in.
func (s *Service) mergeAssessment(decision enforcement.Decision, assessment *llm.Assessment, attempt int) *ValidationResult {
	result := &ValidationResult{
		Valid:              !assessment.ShouldBlock,
		ReadyForSubmission: !assessment.ShouldBlock,
		QualityAssessment: QualityScore{
			Score:        assessment.QualityScore,
			ThresholdMet: assessment.QualityScore >= s.scorer.Threshold(),
			Breakdown:    s.scorer.Contributions(assessment.Components),
		},
		Requirements:     decision.Requirements,
		EnforcementLevel: decision.Level,
		AttemptNumber:    attempt,
	}
	for _, w := range decision.Warnings {
		result.Warnings = append(result.Warnings, w)
	}
	for _, suggestion := range assessment.Suggestions {
		result.Requirements = append(result.Requirements, enforcement.Requirement{
			Field:   "form",
			Message: suggestion,
		})
	}
	for _, warning := range assessment.Warnings {
		result.Warnings = append(result.Warnings, enforcement.Warning{
			Field:   "form",
			Message: warning,
		})
	}
	return result
}

// WritingAssistance rewrites a field's current text into a compliant
// version.
func (s *Service) WritingAssistance(ctx context.Context, sub forms.Submission, field string) (*Suggestion, error) {
	current, _ := s.fieldText(sub, field)
	text, err := s.oracle.Suggest(ctx, field, current, sub)
	if err != nil {
		return nil, err
	}
	confidence := "medium"
	if strings.TrimSpace(current) != "" {
		confidence = "high"
	}
	return &Suggestion{Text: text, Field: field, Confidence: confidence}, nil
}

// resolveAttempt reads the attempt counter, defaulting to 1 when no
// source is wired or the read fails. A counter outage must not block
// validation.
func (s *Service) resolveAttempt(ctx context.Context, formType forms.FormType, formID string, opts ValidateOptions) int {
	if opts.AttemptNumber > 0 {
		return opts.AttemptNumber
	}
	if s.attempts == nil {
		return 1
	}
	attempt, err := s.attempts.GetAttemptNumber(ctx, formType, formID, opts.UserID)
	if err != nil {
		s.log.Warn("Attempt lookup failed, treating as first attempt",
			slog.String("form_id", formID), slog.Any("error", err))
		return 1
	}
	return attempt
}

func (s *Service) audit(ctx context.Context, sub forms.Submission, opts ValidateOptions, attempt int, decision enforcement.Decision, issues []rules.ValidationIssue, action enforcement.Action) {
	if s.emitter == nil {
		return
	}
	s.emitter.Emit(ctx, enforcement.AuditEntry{
		FormType:                 sub.Type(),
		FormID:                   formIDOf(sub),
		UserID:                   opts.UserID,
		AttemptNumber:            attempt,
		Level:                    decision.Level,
		IssuesFound:              issues,
		RequirementsMissing:      decision.Requirements,
		ErrorsBlocking:           decision.Errors,
		Action:                   action,
		ManagerApprovalRequested: decision.RequiresManagerApproval,
	})
}

func (s *Service) trace(ctx context.Context, sub forms.Submission, opts ValidateOptions, attempt int, decision enforcement.Decision, issues []rules.ValidationIssue) {
	if !s.explain || s.emitter == nil {
		return
	}
	s.emitter.EmitTrace(ctx, enforcement.DecisionTrace{
		FormType: sub.Type(),
		FormID:   formIDOf(sub),
		UserID:   opts.UserID,
		Attempt:  attempt,
		Level:    decision.Level,
		Steps:    traceSteps(decision, issues),
	})
}

func actionForResult(result *ValidationResult) enforcement.Action {
	if !result.Valid {
		return enforcement.ActionSubmissionBlocked
	}
	return enforcement.ActionSubmissionAllowed
}

func formIDOf(sub forms.Submission) string {
	switch f := sub.(type) {
	case *forms.NCASubmission:
		return f.FormID
	case *forms.MJCSubmission:
		return f.FormID
	default:
		return ""
	}
}
