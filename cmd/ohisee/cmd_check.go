// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/rules"
)

// Exit codes.
const (
	ExitSuccess = 0
	ExitFailed  = 1
	ExitError   = 2
)

// errQualityFailed signals a clean run that found quality problems.
// main maps it to ExitFailed instead of ExitError.
var errQualityFailed = errors.New("quality checks failed")

var checkJSON bool

var checkCmd = &cobra.Command{
	Use:   "check <form.yaml>",
	Short: "Run deterministic rule checks on a form file",
	Long: `Run the rule engine against a form file: description
completeness, vague language, root cause depth, and corrective action
specificity.

Examples:
  ohisee check nca-damaged-cartons.yaml
  ohisee check --json mjc-conveyor.yaml

Exit Codes:
  0 = All checks passed
  1 = Issues found
  2 = Error (unreadable file, invalid form)`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Emit the result as JSON")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	sub, err := loadForm(args[0])
	if err != nil {
		return err
	}

	engine, err := rules.NewEngine()
	if err != nil {
		return fmt.Errorf("building rule engine: %w", err)
	}
	result := engine.CheckSubmission(sub)

	out := cmd.OutOrStdout()
	if checkJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return err
		}
	} else {
		printCheckResult(cmd, result)
	}

	if !result.Valid || len(result.Issues) > 0 {
		return errQualityFailed
	}
	return nil
}

func printCheckResult(cmd *cobra.Command, result rules.Result) {
	if len(result.Issues) == 0 {
		cmd.Println("All rule checks passed.")
		return
	}

	for _, issue := range result.Issues {
		cmd.Printf("[%s] %s: %s\n", issue.Severity, issue.Field, issue.Message)
		if issue.ExampleFix != "" {
			cmd.Printf("        example: %s\n", issue.ExampleFix)
		}
	}
	if len(result.MissingRequirements) > 0 {
		cmd.Printf("missing: %v\n", result.MissingRequirements)
	}
	if len(result.VaguePhrases) > 0 {
		cmd.Printf("vague phrases: %v\n", result.VaguePhrases)
	}
	cmd.Printf("%d issue(s) found.\n", len(result.Issues))
}
