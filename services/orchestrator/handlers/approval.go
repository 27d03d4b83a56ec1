// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/pkg/validation"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/enforcement"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/forms"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/orchestrator/datatypes"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/orchestrator/observability"
)

// EnforcementStore is the slice of the badger store the HTTP surface
// reads and writes outside the validation path.
type EnforcementStore interface {
	ListAttempts(ctx context.Context, formType forms.FormType, formID, userID string) ([]enforcement.AuditEntry, error)
	RecordManagerApproval(ctx context.Context, approval enforcement.ManagerApproval) error
	GetApproval(ctx context.Context, logID string) (*enforcement.ManagerApproval, error)
}

// RecordApproval records a manager override of a blocked submission.
// The justification must be substantial enough to audit; short ones
// are rejected at this boundary.
//
// POST /v1/approvals
func RecordApproval(store EnforcementStore, metrics *observability.ValidationMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ApprovalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body"})
			return
		}

		if err := validation.ValidateIdentifier(req.ApproverID); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}
		justification, err := validation.SanitizeJustification(req.Justification)
		if err != nil {
			if metrics != nil {
				metrics.RecordApproval(false)
			}
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}

		approval := enforcement.ManagerApproval{
			LogID:     req.LogID,
			ManagerID: req.ApproverID,
			Approved:  true,
			Notes:     justification,
			Timestamp: time.Now().UTC(),
		}
		if err := store.RecordManagerApproval(c.Request.Context(), approval); err != nil {
			if metrics != nil {
				metrics.RecordApproval(false)
			}
			if errors.Is(err, enforcement.ErrUnknownLogID) {
				c.JSON(http.StatusNotFound, datatypes.ErrorResponse{Error: err.Error()})
				return
			}
			slog.Error("recording manager approval failed", "log_id", req.LogID, "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "internal error"})
			return
		}

		if metrics != nil {
			metrics.RecordApproval(true)
		}
		slog.Info("manager approval recorded", "log_id", req.LogID, "manager_id", req.ApproverID)
		c.JSON(http.StatusCreated, approval)
	}
}

// GetApproval returns the recorded approval for an enforcement log
// entry, or 404 when none exists.
//
// GET /v1/approvals/:logId
func GetApproval(store EnforcementStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		logID := c.Param("logId")
		approval, err := store.GetApproval(c.Request.Context(), logID)
		if err != nil {
			slog.Error("loading manager approval failed", "log_id", logID, "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "internal error"})
			return
		}
		if approval == nil {
			c.JSON(http.StatusNotFound, datatypes.ErrorResponse{Error: "no approval recorded"})
			return
		}
		c.JSON(http.StatusOK, approval)
	}
}
