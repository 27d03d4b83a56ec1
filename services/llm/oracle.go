// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/forms"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/scoring"
)

// Mode selects the depth of AI analysis. Each mode has its own rate
// limit window and latency budget.
type Mode string

const (
	// ModeInline is the cheap per-field score used while the user types.
	ModeInline Mode = "inline"
	// ModeDeep is the full structured assessment run at submission.
	ModeDeep Mode = "deep"
)

// Call statuses reported to a CallRecorder.
const (
	CallOK          = "ok"
	CallFallback    = "fallback"
	CallRateLimited = "rate_limited"
	CallError       = "error"
)

// CallRecorder receives the outcome and latency of every oracle call.
// The orchestrator's validation metrics satisfy it. Implementations
// must be safe for concurrent use.
type CallRecorder interface {
	RecordOracleCall(mode, status string, seconds float64)
}

// Assessment is the oracle's structured judgement of a submission.
type Assessment struct {
	QualityScore int               `json:"quality_score"`
	Components   scoring.Breakdown `json:"components"`
	Suggestions  []string          `json:"suggestions"`
	Warnings     []string          `json:"warnings"`
	ShouldBlock  bool              `json:"should_block"`
}

// FallbackAssessment is returned when the backend is unreachable: a
// neutral score that neither blocks nor endorses, flagged for manual
// review. Oracle unavailability must never block a legitimate
// submission.
func FallbackAssessment() *Assessment {
	return &Assessment{
		QualityScore: 50,
		Components: scoring.Breakdown{
			Completeness:         50,
			Accuracy:             50,
			Clarity:              50,
			HazardIdentification: 50,
			Evidence:             50,
		},
		Suggestions: []string{"AI service temporarily unavailable - manual review recommended"},
		Warnings:    []string{"Using fallback quality scoring"},
		ShouldBlock: false,
	}
}

// BypassAssessment is the perfect score issued for confidential
// submissions, whose text must never leave the premises for analysis.
func BypassAssessment() *Assessment {
	return &Assessment{
		QualityScore: 100,
		Components: scoring.Breakdown{
			Completeness:         100,
			Accuracy:             100,
			Clarity:              100,
			HazardIdentification: 100,
			Evidence:             100,
		},
		Warnings:    []string{"Confidential mode: Quality checks bypassed"},
		ShouldBlock: false,
	}
}

// OracleConfig controls limits and budgets. Zero values are replaced by
// the defaults, so OracleConfig{} is usable.
type OracleConfig struct {
	Limit        int
	Window       time.Duration
	Clock        Clock
	InlineBudget time.Duration
	DeepBudget   time.Duration
	Logger       *slog.Logger
	// Recorder observes call outcomes and latency. Nil disables
	// reporting.
	Recorder CallRecorder
}

// DefaultOracleConfig returns the production settings: 10 calls per
// minute per mode, 2s inline and 30s deep latency budgets.
func DefaultOracleConfig() OracleConfig {
	return OracleConfig{
		Limit:        DefaultLimit,
		Window:       DefaultWindow,
		Clock:        SystemClock,
		InlineBudget: 2 * time.Second,
		DeepBudget:   30 * time.Second,
	}
}

// Oracle wraps a Client with rate limiting, latency accounting, prompt
// construction, and response parsing. Safe for concurrent use.
type Oracle struct {
	client       Client
	limiter      *SlidingWindow
	clock        Clock
	inlineBudget time.Duration
	deepBudget   time.Duration
	log          *slog.Logger
	recorder     CallRecorder
}

// NewOracle builds an oracle over the given client.
func NewOracle(client Client, cfg OracleConfig) *Oracle {
	def := DefaultOracleConfig()
	if cfg.Limit == 0 {
		cfg.Limit = def.Limit
	}
	if cfg.Window == 0 {
		cfg.Window = def.Window
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	if cfg.InlineBudget == 0 {
		cfg.InlineBudget = def.InlineBudget
	}
	if cfg.DeepBudget == 0 {
		cfg.DeepBudget = def.DeepBudget
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Oracle{
		client:       client,
		limiter:      NewSlidingWindow(cfg.Limit, cfg.Window, cfg.Clock),
		clock:        cfg.Clock,
		inlineBudget: cfg.InlineBudget,
		deepBudget:   cfg.DeepBudget,
		log:          cfg.Logger.With(slog.String("component", "ai_oracle")),
		recorder:     cfg.Recorder,
	}
}

// Remaining exposes the limiter budget for a mode.
func (o *Oracle) Remaining(mode Mode) int { return o.limiter.Remaining(mode) }

func (o *Oracle) record(mode Mode, status string, elapsed time.Duration) {
	if o.recorder != nil {
		o.recorder.RecordOracleCall(string(mode), status, elapsed.Seconds())
	}
}

var scorePattern = regexp.MustCompile(`(?i)score:\s*(\d+)`)

// InlineScore asks the model for a quick 0-100 quality judgement of a
// single field. On backend unavailability it returns the neutral score
// 50 rather than an error; a rate limit rejection is returned as-is so
// the caller can tell the user when to retry.
func (o *Oracle) InlineScore(ctx context.Context, field, text string) (int, error) {
	if err := o.limiter.Reserve(ModeInline); err != nil {
		o.record(ModeInline, CallRateLimited, 0)
		return 0, err
	}

	maxTokens := 200
	prompt := fmt.Sprintf(
		"Rate the quality of this %s from a food safety compliance form on a scale of 0-100. Consider specificity, traceability, and completeness. Reply with exactly one line: \"Score: <number>\".\n\n%s",
		strings.ReplaceAll(field, "_", " "), text)

	start := o.clock.Now()
	resp, err := o.client.Generate(ctx, prompt, GenerationParams{MaxTokens: &maxTokens})
	elapsed := o.clock.Now().Sub(start)
	if elapsed > o.inlineBudget {
		o.log.Warn("Inline analysis exceeded latency budget",
			slog.Duration("elapsed", elapsed), slog.Duration("budget", o.inlineBudget))
	}
	if err != nil {
		if IsRateLimited(err) {
			o.record(ModeInline, CallRateLimited, elapsed)
			return 0, err
		}
		if IsUnavailable(err) {
			o.log.Warn("Inline analysis unavailable, using neutral score", slog.Any("error", err))
			o.record(ModeInline, CallFallback, elapsed)
			return 50, nil
		}
		o.record(ModeInline, CallError, elapsed)
		return 0, fmt.Errorf("inline analysis failed: %w", err)
	}

	o.record(ModeInline, CallOK, elapsed)
	return extractScore(resp), nil
}

// extractScore pulls the numeric score out of a model reply, defaulting
// to the neutral 50 when the reply does not follow the format.
func extractScore(resp string) int {
	m := scorePattern.FindStringSubmatch(resp)
	if m == nil {
		return 50
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n > 100 {
		return 50
	}
	return n
}

// Assess runs the full structured assessment of a submission. Error
// behavior mirrors InlineScore: rate limits propagate, unavailability
// degrades to FallbackAssessment, anything else is returned to the
// caller.
func (o *Oracle) Assess(ctx context.Context, sub forms.Submission, role string) (*Assessment, error) {
	if err := o.limiter.Reserve(ModeDeep); err != nil {
		o.record(ModeDeep, CallRateLimited, 0)
		return nil, err
	}

	maxTokens := 2000
	prompt := deepPrompt(sub, role)

	start := o.clock.Now()
	resp, err := o.client.Generate(ctx, prompt, GenerationParams{MaxTokens: &maxTokens})
	elapsed := o.clock.Now().Sub(start)
	if elapsed > o.deepBudget {
		o.log.Warn("Deep analysis exceeded latency budget",
			slog.Duration("elapsed", elapsed), slog.Duration("budget", o.deepBudget))
	}
	if err != nil {
		if IsRateLimited(err) {
			o.record(ModeDeep, CallRateLimited, elapsed)
			return nil, err
		}
		if IsUnavailable(err) {
			o.log.Warn("Deep analysis unavailable, using fallback assessment", slog.Any("error", err))
			o.record(ModeDeep, CallFallback, elapsed)
			return FallbackAssessment(), nil
		}
		o.record(ModeDeep, CallError, elapsed)
		return nil, fmt.Errorf("deep analysis failed: %w", err)
	}

	assessment, err := parseAssessment(resp)
	if err != nil {
		o.log.Warn("Unparseable assessment response, using fallback", slog.Any("error", err))
		o.record(ModeDeep, CallFallback, elapsed)
		fallback := FallbackAssessment()
		fallback.Warnings = append(fallback.Warnings, "AI response could not be parsed")
		return fallback, nil
	}
	o.record(ModeDeep, CallOK, elapsed)
	return assessment, nil
}

// Suggest asks the model to rewrite a field's current text into a
// compliant version, using the surrounding submission as context.
// Counted against the inline window since it serves the same
// interactive surface. Unlike scoring there is no useful fallback for
// generation, so backend failures are returned to the caller.
func (o *Oracle) Suggest(ctx context.Context, field, current string, sub forms.Submission) (string, error) {
	if err := o.limiter.Reserve(ModeInline); err != nil {
		o.record(ModeInline, CallRateLimited, 0)
		return "", err
	}

	maxTokens := 400
	var b strings.Builder
	fmt.Fprintf(&b, "Rewrite the %s below so it satisfies food safety compliance expectations: state what, when, where, quantities, and batch identifiers where relevant; name procedures; avoid vague wording. Reply with the rewritten text only.\n\n",
		strings.ReplaceAll(field, "_", " "))
	fmt.Fprintf(&b, "Current text: %s\n", current)
	if desc := sub.Description(); desc != "" && desc != current {
		fmt.Fprintf(&b, "Form description for context: %s\n", desc)
	}

	start := o.clock.Now()
	resp, err := o.client.Generate(ctx, b.String(), GenerationParams{MaxTokens: &maxTokens})
	elapsed := o.clock.Now().Sub(start)
	if err != nil {
		status := CallError
		if IsRateLimited(err) {
			status = CallRateLimited
		}
		o.record(ModeInline, status, elapsed)
		return "", fmt.Errorf("writing assistance failed: %w", err)
	}
	o.record(ModeInline, CallOK, elapsed)
	return strings.TrimSpace(resp), nil
}

// deepPrompt renders the submission fields into the structured
// assessment request. The reply contract is strict JSON so parsing
// stays mechanical.
func deepPrompt(sub forms.Submission, role string) string {
	var b strings.Builder
	b.WriteString("Assess this food safety compliance form submission. Reply with JSON only, matching exactly:\n")
	b.WriteString(`{"quality_score": <0-100>, "components": {"completeness": <0-100>, "accuracy": <0-100>, "clarity": <0-100>, "hazard_identification": <0-100>, "evidence": <0-100>}, "suggestions": [<strings>], "warnings": [<strings>], "should_block": <bool>}`)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Form type: %s\nSubmitter role: %s\n", sub.Type(), role)
	fmt.Fprintf(&b, "Description: %s\n", sub.Description())
	if rc := sub.RootCause(); rc != "" {
		fmt.Fprintf(&b, "Root cause analysis: %s\n", rc)
	}
	if ca := sub.CorrectiveAction(); ca != "" {
		fmt.Fprintf(&b, "Corrective action: %s\n", ca)
	}
	return b.String()
}

// parseAssessment decodes the model's JSON reply, tolerating markdown
// code fences around the object.
func parseAssessment(resp string) (*Assessment, error) {
	trimmed := strings.TrimSpace(resp)
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			trimmed = trimmed[start : end+1]
		}
	}
	var a Assessment
	if err := json.Unmarshal([]byte(trimmed), &a); err != nil {
		return nil, fmt.Errorf("failed to parse assessment JSON: %w", err)
	}
	if a.QualityScore < 0 || a.QualityScore > 100 {
		return nil, fmt.Errorf("assessment score %d out of range", a.QualityScore)
	}
	return &a, nil
}
