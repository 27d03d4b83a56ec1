// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the orchestrator's HTTP endpoints.
//
// Handlers bind and validate the request, decode the submission union,
// call into the quality service, and map its error taxonomy onto HTTP
// statuses: rate limits become 429 with the retry delay, unknown fields
// and malformed payloads become 400, everything else 500. Validation
// outcomes (including blocks) are 200s; a blocked submission is a valid
// answer, not a transport failure.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/llm"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/orchestrator/datatypes"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/orchestrator/observability"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/quality"
)

// CheckFieldQuality scores one field for interactive feedback.
//
// POST /v1/quality/field
func CheckFieldQuality(svc *quality.Service, metrics *observability.ValidationMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.FieldQualityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body"})
			return
		}

		sub, err := datatypes.DecodeSubmission(req.FormType, req.Submission)
		if err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}

		if metrics != nil {
			metrics.RecordFieldCheck(req.FormType, req.Field)
		}

		score, err := svc.CheckFieldQuality(c.Request.Context(), sub, req.Field, req.Role)
		if err != nil {
			respondQualityError(c, err)
			return
		}

		c.JSON(http.StatusOK, score)
	}
}

// ValidateSubmission runs the full submission gate.
//
// POST /v1/quality/validate
func ValidateSubmission(svc *quality.Service, metrics *observability.ValidationMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ValidateSubmissionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body"})
			return
		}

		sub, err := datatypes.DecodeSubmission(req.FormType, req.Submission)
		if err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}

		result, err := svc.ValidateSubmission(c.Request.Context(), sub, quality.ValidateOptions{
			UserID:        req.UserID,
			Role:          req.Role,
			Confidential:  req.Confidential,
			AttemptNumber: req.AttemptNumber,
		})
		if err != nil {
			if metrics != nil {
				metrics.RecordValidation(req.FormType, observability.OutcomeError)
			}
			respondQualityError(c, err)
			return
		}

		if metrics != nil {
			metrics.RecordValidation(req.FormType, outcomeFor(result, req.Confidential))
			if result.EnforcementLevel != "" {
				metrics.RecordDecision(string(result.EnforcementLevel))
			}
		}

		c.JSON(http.StatusOK, result)
	}
}

// WritingAssistance returns an AI drafting suggestion for one field.
//
// POST /v1/quality/assist
func WritingAssistance(svc *quality.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.AssistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body"})
			return
		}
		if err := datatypes.Validate(req); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "field text too large"})
			return
		}

		sub, err := datatypes.DecodeSubmission(req.FormType, req.Submission)
		if err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}

		suggestion, err := svc.WritingAssistance(c.Request.Context(), sub, req.Field)
		if err != nil {
			respondQualityError(c, err)
			return
		}

		c.JSON(http.StatusOK, suggestion)
	}
}

// outcomeFor maps a validation result onto a metrics outcome label.
func outcomeFor(result *quality.ValidationResult, confidential bool) string {
	switch {
	case confidential:
		return observability.OutcomeBypassed
	case result.RequiresApproval:
		return observability.OutcomeApprovalRequired
	case len(result.Errors) > 0:
		return observability.OutcomeBlocked
	case !result.ReadyForSubmission:
		return observability.OutcomeIssues
	default:
		return observability.OutcomePassed
	}
}

// respondQualityError maps quality-service errors onto HTTP statuses.
func respondQualityError(c *gin.Context, err error) {
	var rle *llm.RateLimitError
	if errors.As(err, &rle) {
		c.JSON(http.StatusTooManyRequests, datatypes.RateLimitedResponse{
			Error:      "analysis limit reached, please retry shortly",
			RetryAfter: rle.RetryAfter,
		})
		return
	}
	if errors.Is(err, quality.ErrUnknownField) {
		c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
		return
	}

	slog.Error("quality request failed", "error", err)
	c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "internal error"})
}
