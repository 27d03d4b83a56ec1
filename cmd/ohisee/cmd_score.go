// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/scoring"
)

var (
	scoreJSON      bool
	scoreRole      string
	scoreThreshold int
)

var scoreCmd = &cobra.Command{
	Use:   "score <form.yaml>",
	Short: "Compute the weighted quality score of a form file",
	Long: `Compute the five-component weighted quality score
(completeness, accuracy, clarity, hazard identification, evidence) for
a form file.

Examples:
  ohisee score nca-damaged-cartons.yaml
  ohisee score --role qa-supervisor --threshold 80 mjc-conveyor.yaml

Exit Codes:
  0 = Score at or above threshold
  1 = Score below threshold
  2 = Error (unreadable file, invalid form)`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Emit the result as JSON")
	scoreCmd.Flags().StringVar(&scoreRole, "role", "", "Submitter role (stricter clarity scoring for qa-supervisor)")
	scoreCmd.Flags().IntVar(&scoreThreshold, "threshold", scoring.DefaultThreshold, "Passing score threshold")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	sub, err := loadForm(args[0])
	if err != nil {
		return err
	}

	scorer := scoring.NewScorerWithThreshold(scoreThreshold)
	score := scorer.Score(sub, scoreRole)

	out := cmd.OutOrStdout()
	if scoreJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(score); err != nil {
			return err
		}
	} else {
		cmd.Printf("overall:               %3d (threshold %d)\n", score.Overall, scoreThreshold)
		cmd.Printf("completeness:          %3d\n", score.Breakdown.Completeness)
		cmd.Printf("accuracy:              %3d\n", score.Breakdown.Accuracy)
		cmd.Printf("clarity:               %3d\n", score.Breakdown.Clarity)
		cmd.Printf("hazard identification: %3d\n", score.Breakdown.HazardIdentification)
		cmd.Printf("evidence:              %3d\n", score.Breakdown.Evidence)
		if score.Passed {
			cmd.Println("PASSED")
		} else {
			cmd.Println("FAILED")
		}
	}

	if !score.Passed {
		return errQualityFailed
	}
	return nil
}
