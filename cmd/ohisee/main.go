// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command ohisee is the CLI for the quality-enforcement pipeline:
// offline rule checks and quality scoring of compliance form files,
// plus a serve command for the full HTTP service.
package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ohisee",
	Short: "OhISee compliance form quality tools",
	Long: `ohisee runs the quality-enforcement pipeline against NCA and
MJC form files. check and score run the offline stages (deterministic
rules and the weighted score, no network, no AI calls); serve starts
the full HTTP validation service.

Form files are YAML with a form_type discriminant:

  form_type: nca
  nc_type: raw-material
  nc_description: >
    Found 3 damaged cartons (batch B-2024-0156) in receiving area
    at 09:30 during goods-in inspection.
`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errQualityFailed) {
			os.Exit(ExitFailed)
		}
		os.Exit(ExitError)
	}
}
