// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides metrics and instrumentation for the
// orchestrator.
//
// # Description
//
// This package implements Prometheus metrics for monitoring the quality
// validation pipeline. Metrics include:
//   - Validation counters (by form type and outcome)
//   - Oracle call counters (by mode and status, including fallbacks)
//   - Enforcement decision counters (by level)
//   - Oracle latency histograms (by mode)
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "ohisee"

// Subsystem for quality pipeline metrics
const qualitySubsystem = "quality"

// Outcome labels for validation results.
const (
	OutcomePassed           = "passed"
	OutcomeIssues           = "issues"
	OutcomeBlocked          = "blocked"
	OutcomeApprovalRequired = "approval_required"
	OutcomeBypassed         = "bypassed"
	OutcomeError            = "error"
)

// Oracle call status labels.
const (
	OracleStatusOK          = "ok"
	OracleStatusFallback    = "fallback"
	OracleStatusRateLimited = "rate_limited"
	OracleStatusError       = "error"
)

// ValidationMetrics holds all Prometheus metrics for the quality pipeline.
//
// Initialize once at startup via InitMetrics(), or with a private
// registry via NewValidationMetrics() in tests.
type ValidationMetrics struct {
	// ValidationsTotal counts submission validations.
	// Labels: form_type (nca, mjc), outcome (passed, issues, blocked,
	// approval_required, bypassed, error)
	ValidationsTotal *prometheus.CounterVec

	// FieldChecksTotal counts inline field quality checks.
	// Labels: form_type, field
	FieldChecksTotal *prometheus.CounterVec

	// OracleCallsTotal counts AI oracle calls.
	// Labels: mode (inline, deep), status (ok, fallback, rate_limited, error)
	OracleCallsTotal *prometheus.CounterVec

	// OracleLatencySeconds measures oracle call latency.
	// Labels: mode (inline, deep)
	OracleLatencySeconds *prometheus.HistogramVec

	// EnforcementDecisionsTotal counts enforcement decisions.
	// Labels: level (lenient, standard, strict, mandatory-approval)
	EnforcementDecisionsTotal *prometheus.CounterVec

	// ApprovalsTotal counts recorded manager approvals.
	// Labels: status (recorded, rejected)
	ApprovalsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance registered on the default
// Prometheus registry. Initialized by InitMetrics().
var DefaultMetrics *ValidationMetrics

// InitMetrics initializes the default metrics instance.
//
// Registers all metrics on the default Prometheus registry. Call once
// at application startup; a second call panics on duplicate
// registration.
func InitMetrics() *ValidationMetrics {
	DefaultMetrics = NewValidationMetrics(prometheus.DefaultRegisterer)
	return DefaultMetrics
}

// NewValidationMetrics creates and registers the metric set on the
// given registerer. Tests pass a private registry to avoid collisions
// with the default one.
func NewValidationMetrics(reg prometheus.Registerer) *ValidationMetrics {
	factory := promauto.With(reg)

	return &ValidationMetrics{
		ValidationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: qualitySubsystem,
				Name:      "validations_total",
				Help:      "Total submission validations by form type and outcome",
			},
			[]string{"form_type", "outcome"},
		),

		FieldChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: qualitySubsystem,
				Name:      "field_checks_total",
				Help:      "Total inline field quality checks by form type and field",
			},
			[]string{"form_type", "field"},
		),

		OracleCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: qualitySubsystem,
				Name:      "oracle_calls_total",
				Help:      "Total AI oracle calls by mode and status",
			},
			[]string{"mode", "status"},
		),

		OracleLatencySeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: qualitySubsystem,
				Name:      "oracle_latency_seconds",
				Help:      "AI oracle call latency in seconds by mode",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"mode"},
		),

		EnforcementDecisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: qualitySubsystem,
				Name:      "enforcement_decisions_total",
				Help:      "Total enforcement decisions by level",
			},
			[]string{"level"},
		),

		ApprovalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: qualitySubsystem,
				Name:      "approvals_total",
				Help:      "Total manager approval requests by status",
			},
			[]string{"status"},
		),
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

// RecordValidation records a completed submission validation.
func (m *ValidationMetrics) RecordValidation(formType, outcome string) {
	m.ValidationsTotal.WithLabelValues(formType, outcome).Inc()
}

// RecordFieldCheck records an inline field quality check.
func (m *ValidationMetrics) RecordFieldCheck(formType, field string) {
	m.FieldChecksTotal.WithLabelValues(formType, field).Inc()
}

// RecordOracleCall records an oracle call and its latency.
func (m *ValidationMetrics) RecordOracleCall(mode, status string, seconds float64) {
	m.OracleCallsTotal.WithLabelValues(mode, status).Inc()
	m.OracleLatencySeconds.WithLabelValues(mode).Observe(seconds)
}

// RecordDecision records an enforcement decision by level.
func (m *ValidationMetrics) RecordDecision(level string) {
	m.EnforcementDecisionsTotal.WithLabelValues(level).Inc()
}

// RecordApproval records a manager approval attempt.
func (m *ValidationMetrics) RecordApproval(accepted bool) {
	status := "recorded"
	if !accepted {
		status = "rejected"
	}
	m.ApprovalsTotal.WithLabelValues(status).Inc()
}
