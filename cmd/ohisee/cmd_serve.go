// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/orchestrator"
)

var (
	servePort      int
	serveStorePath string
	serveInMemory  bool
	serveThreshold int
	serveExplain   bool
	serveLogDir    string
	serveLogLevel  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the quality-enforcement HTTP service",
	Long: `Start the full validation service: rule checks, AI-assisted
scoring, adaptive enforcement, and the badger-backed enforcement log,
served over HTTP.

Requires OPENAI_API_KEY in the environment.

Examples:
  ohisee serve
  ohisee serve --port 9090 --store /var/lib/ohisee --explain-traces
  ohisee serve --memory --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8086, "HTTP listen port")
	serveCmd.Flags().StringVar(&serveStorePath, "store", "./data/enforcement", "Enforcement log directory")
	serveCmd.Flags().BoolVar(&serveInMemory, "memory", false, "Keep the enforcement log in memory (attempt counters reset on restart)")
	serveCmd.Flags().IntVar(&serveThreshold, "threshold", 0, "Passing score threshold (0 = default)")
	serveCmd.Flags().BoolVar(&serveExplain, "explain-traces", false, "Persist decision traces")
	serveCmd.Flags().StringVar(&serveLogDir, "log-dir", "", "Directory for log files (stderr only when empty)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	svc, err := orchestrator.New(orchestrator.Config{
		Port:           servePort,
		StorePath:      serveStorePath,
		InMemoryStore:  serveInMemory,
		ScoreThreshold: serveThreshold,
		ExplainTraces:  serveExplain,
		LogDir:         serveLogDir,
		LogLevel:       serveLogLevel,
	})
	if err != nil {
		return fmt.Errorf("starting service: %w", err)
	}
	defer svc.Close()

	return svc.Run(context.Background())
}
