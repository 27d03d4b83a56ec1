// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/enforcement"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/forms"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/orchestrator/datatypes"
)

// UserPattern summarizes a user's enforcement history for one form:
// attempt counts, frequent issue fields, whether escalation fired.
//
// GET /v1/patterns/user?form_type=nca&form_id=...&user_id=...
func UserPattern(store EnforcementStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, ok := boundAttempts(c, store)
		if !ok {
			return
		}

		pattern, err := enforcement.AnalyzeUserPattern(entries)
		if err != nil {
			c.JSON(http.StatusNotFound, datatypes.ErrorResponse{Error: "no enforcement history"})
			return
		}
		c.JSON(http.StatusOK, pattern)
	}
}

// ContentPattern reports an issue persisting across most of a form's
// attempts, with a suggestion. 204 when no persistent pattern exists.
//
// GET /v1/patterns/content?form_type=nca&form_id=...&user_id=...
func ContentPattern(store EnforcementStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, ok := boundAttempts(c, store)
		if !ok {
			return
		}

		pattern := enforcement.DetectContentPattern(entries)
		if pattern == nil {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, pattern)
	}
}

// boundAttempts binds the pattern query and loads the scoped attempt
// history. On failure it has already written the response.
func boundAttempts(c *gin.Context, store EnforcementStore) ([]enforcement.AuditEntry, bool) {
	var query datatypes.PatternQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid query parameters"})
		return nil, false
	}

	entries, err := store.ListAttempts(c.Request.Context(),
		forms.FormType(query.FormType), query.FormID, query.UserID)
	if err != nil {
		slog.Error("listing enforcement attempts failed",
			"form_id", query.FormID, "user_id", query.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "internal error"})
		return nil, false
	}
	return entries, true
}
