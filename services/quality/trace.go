// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package quality

import (
	"fmt"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/enforcement"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/rules"
)

// traceSteps builds the per-issue rationale for an explainability
// trace: what the check found and what the enforcement level did with
// it. This is the internal record behind the user-facing "why" view.
func traceSteps(decision enforcement.Decision, issues []rules.ValidationIssue) []enforcement.TraceStep {
	steps := make([]enforcement.TraceStep, 0, len(issues))
	for _, issue := range issues {
		steps = append(steps, enforcement.TraceStep{
			Field:     issue.Field,
			Rationale: rationaleFor(issue, decision.Level),
		})
	}
	return steps
}

func rationaleFor(issue rules.ValidationIssue, level enforcement.Level) string {
	disposition := "surfaced as guidance"
	switch level {
	case enforcement.LevelStandard:
		if issue.Severity == rules.SeverityError {
			disposition = "blocked the submission"
		}
	case enforcement.LevelStrict:
		disposition = "blocked the submission"
	case enforcement.LevelMandatoryApproval:
		disposition = "blocked the submission pending manager approval"
	}

	rationale := fmt.Sprintf("%s-severity finding on %s %s: %s",
		issue.Severity, issue.Field, disposition, issue.Message)
	if issue.StandardReference != "" {
		rationale += fmt.Sprintf(" (per %s)", issue.StandardReference)
	}
	return rationale
}
