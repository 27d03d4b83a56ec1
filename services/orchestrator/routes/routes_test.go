// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/orchestrator/observability"
)

func routePaths(router *gin.Engine) map[string]bool {
	paths := make(map[string]bool)
	for _, route := range router.Routes() {
		paths[route.Method+" "+route.Path] = true
	}
	return paths
}

func TestSetupRoutes_RegistersAllEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, nil, nil, nil)

	want := []string{
		"GET /health",
		"POST /v1/quality/field",
		"POST /v1/quality/validate",
		"POST /v1/quality/assist",
		"POST /v1/approvals",
		"GET /v1/approvals/:logId",
		"GET /v1/patterns/user",
		"GET /v1/patterns/content",
	}

	paths := routePaths(router)
	for _, route := range want {
		if !paths[route] {
			t.Errorf("route %q not registered", route)
		}
	}
	if paths["GET /metrics"] {
		t.Error("/metrics registered without metrics enabled")
	}
}

func TestSetupRoutes_MetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, nil, nil, observability.NewValidationMetrics(prometheus.NewRegistry()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /metrics status = %d, want 200", w.Code)
	}
}
