// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package observability

import (
	"context"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sashabaranov/go-openai"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/llm"
)

func newTestMetrics(t *testing.T) *ValidationMetrics {
	t.Helper()
	return NewValidationMetrics(prometheus.NewRegistry())
}

func TestRecordValidation(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordValidation("nca", OutcomePassed)
	m.RecordValidation("nca", OutcomePassed)
	m.RecordValidation("nca", OutcomeBlocked)
	m.RecordValidation("mjc", OutcomeBypassed)

	if got := testutil.ToFloat64(m.ValidationsTotal.WithLabelValues("nca", OutcomePassed)); got != 2 {
		t.Errorf("nca/passed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ValidationsTotal.WithLabelValues("nca", OutcomeBlocked)); got != 1 {
		t.Errorf("nca/blocked = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ValidationsTotal.WithLabelValues("mjc", OutcomeBypassed)); got != 1 {
		t.Errorf("mjc/bypassed = %v, want 1", got)
	}
}

func TestRecordOracleCall(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordOracleCall("inline", OracleStatusOK, 0.3)
	m.RecordOracleCall("deep", OracleStatusFallback, 2.1)
	m.RecordOracleCall("deep", OracleStatusRateLimited, 0)

	if got := testutil.ToFloat64(m.OracleCallsTotal.WithLabelValues("inline", OracleStatusOK)); got != 1 {
		t.Errorf("inline/ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.OracleCallsTotal.WithLabelValues("deep", OracleStatusFallback)); got != 1 {
		t.Errorf("deep/fallback = %v, want 1", got)
	}

	if got := testutil.CollectAndCount(m.OracleLatencySeconds); got != 2 {
		t.Errorf("latency series = %v, want 2", got)
	}
}

func TestRecordDecisionAndApproval(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordDecision("lenient")
	m.RecordDecision("mandatory-approval")
	m.RecordApproval(true)
	m.RecordApproval(false)

	if got := testutil.ToFloat64(m.EnforcementDecisionsTotal.WithLabelValues("mandatory-approval")); got != 1 {
		t.Errorf("mandatory-approval = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ApprovalsTotal.WithLabelValues("rejected")); got != 1 {
		t.Errorf("approvals rejected = %v, want 1", got)
	}
}

func TestNewValidationMetrics_IsolatedRegistries(t *testing.T) {
	// Two instances on separate registries must not collide.
	a := NewValidationMetrics(prometheus.NewRegistry())
	b := NewValidationMetrics(prometheus.NewRegistry())

	a.RecordFieldCheck("nca", "nc_description")
	if got := testutil.ToFloat64(b.FieldChecksTotal.WithLabelValues("nca", "nc_description")); got != 0 {
		t.Errorf("second registry counter = %v, want 0", got)
	}
}

func TestValidationMetrics_ServesAsOracleRecorder(t *testing.T) {
	m := newTestMetrics(t)

	oracle := llm.NewOracle(unavailableClient{}, llm.OracleConfig{Recorder: m})
	if _, err := oracle.InlineScore(context.Background(), "nc_description", "text"); err != nil {
		t.Fatalf("fallback path must not error: %v", err)
	}

	if got := testutil.ToFloat64(m.OracleCallsTotal.WithLabelValues("inline", OracleStatusFallback)); got != 1 {
		t.Errorf("inline/fallback = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.OracleLatencySeconds); got != 1 {
		t.Errorf("latency series = %d, want 1", got)
	}
}

type unavailableClient struct{}

func (unavailableClient) Generate(context.Context, string, llm.GenerationParams) (string, error) {
	return "", &openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable}
}
