// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/orchestrator/handlers"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/orchestrator/observability"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/quality"
)

// SetupRoutes registers all HTTP endpoints on the router. metrics may
// be nil when the metrics endpoint is disabled.
func SetupRoutes(router *gin.Engine, svc *quality.Service, store handlers.EnforcementStore,
	metrics *observability.ValidationMetrics) {

	router.GET("/health", handlers.HealthCheck)

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// API version 1 group
	v1 := router.Group("/v1")
	{
		qualityGroup := v1.Group("/quality")
		{
			qualityGroup.POST("/field", handlers.CheckFieldQuality(svc, metrics))
			qualityGroup.POST("/validate", handlers.ValidateSubmission(svc, metrics))
			qualityGroup.POST("/assist", handlers.WritingAssistance(svc))
		}

		approvals := v1.Group("/approvals")
		{
			approvals.POST("", handlers.RecordApproval(store, metrics))
			approvals.GET("/:logId", handlers.GetApproval(store))
		}

		patterns := v1.Group("/patterns")
		{
			patterns.GET("/user", handlers.UserPattern(store))
			patterns.GET("/content", handlers.ContentPattern(store))
		}
	}
}
