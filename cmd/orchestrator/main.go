// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command orchestrator starts the OhISee quality-enforcement HTTP server.
//
// This is the main entry point for the containerized service. It reads
// configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - ORCHESTRATOR_PORT: HTTP server port (default: 8086)
//   - ENFORCEMENT_STORE_PATH: badger data directory (default: ./data/enforcement)
//   - ENFORCEMENT_STORE_MEMORY: "true" for an ephemeral in-memory store
//   - QUALITY_SCORE_THRESHOLD: passing quality score (default: 75)
//   - EXPLAIN_TRACES: "true" to persist decision traces
//   - LOG_DIR: directory for file logs (default: stderr only)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - OPENAI_API_KEY: AI backend credentials (or /run/secrets/openai_api_key)
//   - OPENAI_MODEL: AI model name (default: gpt-4o-mini)
//
// # Usage
//
//	# Build
//	go build -o orchestrator ./cmd/orchestrator
//
//	# Run
//	ORCHESTRATOR_PORT=8086 ./orchestrator
package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/orchestrator"
)

func main() {
	cfg := orchestrator.Config{
		Port:           getEnvInt("ORCHESTRATOR_PORT", 8086),
		StorePath:      getEnvString("ENFORCEMENT_STORE_PATH", "./data/enforcement"),
		InMemoryStore:  getEnvBool("ENFORCEMENT_STORE_MEMORY", false),
		ScoreThreshold: getEnvInt("QUALITY_SCORE_THRESHOLD", 0),
		ExplainTraces:  getEnvBool("EXPLAIN_TRACES", false),
		LogDir:         os.Getenv("LOG_DIR"),
		LogLevel:       getEnvString("LOG_LEVEL", "info"),
		GinMode:        os.Getenv("GIN_MODE"),
	}

	svc, err := orchestrator.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create orchestrator: %v", err)
	}

	if err := svc.Run(context.Background()); err != nil {
		log.Fatalf("Orchestrator error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool returns the environment variable as bool or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
