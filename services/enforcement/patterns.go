// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package enforcement

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// UserPattern summarizes a user's enforcement history for management
// reporting.
type UserPattern struct {
	UserID                 string    `json:"user_id"`
	TotalAttempts          int       `json:"total_attempts"`
	AverageAttemptsPerForm float64   `json:"average_attempts_per_form"`
	FrequentIssues         []string  `json:"frequent_issues"`
	LastAttempt            time.Time `json:"last_attempt"`
	EscalationTriggered    bool      `json:"escalation_triggered"`
}

// AnalyzeUserPattern folds a user's audit entries into a pattern
// summary. The entries are expected to belong to one user.
func AnalyzeUserPattern(entries []AuditEntry) (UserPattern, error) {
	if len(entries) == 0 {
		return UserPattern{}, errors.New("cannot analyze pattern from empty history")
	}

	issueCounts := make(map[string]int)
	uniqueForms := make(map[string]bool)
	escalated := false
	last := entries[0].Timestamp
	for _, entry := range entries {
		for _, issue := range entry.IssuesFound {
			issueCounts[issue.Field]++
		}
		if entry.FormID != "" {
			uniqueForms[entry.FormID] = true
		}
		if entry.Level == LevelStrict || entry.Level == LevelMandatoryApproval {
			escalated = true
		}
		if entry.Timestamp.After(last) {
			last = entry.Timestamp
		}
	}

	average := float64(len(entries))
	if len(uniqueForms) > 0 {
		average = float64(len(entries)) / float64(len(uniqueForms))
	}

	return UserPattern{
		UserID:                 entries[0].UserID,
		TotalAttempts:          len(entries),
		AverageAttemptsPerForm: average,
		FrequentIssues:         topFields(issueCounts, 3),
		LastAttempt:            last,
		EscalationTriggered:    escalated,
	}, nil
}

// topFields returns the n most frequent fields, ties broken by name so
// the result is stable.
func topFields(counts map[string]int, n int) []string {
	fields := make([]string, 0, len(counts))
	for field := range counts {
		fields = append(fields, field)
	}
	sort.Slice(fields, func(i, j int) bool {
		if counts[fields[i]] != counts[fields[j]] {
			return counts[fields[i]] > counts[fields[j]]
		}
		return fields[i] < fields[j]
	})
	if len(fields) > n {
		fields = fields[:n]
	}
	return fields
}

// ContentPattern flags a validation requirement users repeatedly fail,
// suggesting the requirement needs clearer surfacing or tuning.
type ContentPattern struct {
	Pattern    string `json:"pattern"`
	Suggestion string `json:"suggestion"`
}

// DetectContentPattern looks for an issue that persists across 80%+ of
// a form's attempts. Needs at least 3 attempts to be meaningful; nil
// means no persistent pattern.
func DetectContentPattern(entries []AuditEntry) *ContentPattern {
	if len(entries) < 3 {
		return nil
	}

	persistent := make(map[string]int)
	for _, entry := range entries {
		for _, issue := range entry.IssuesFound {
			persistent[issue.Field+":"+issue.Message]++
		}
	}

	threshold := float64(len(entries)) * 0.8
	keys := make([]string, 0, len(persistent))
	for key := range persistent {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if float64(persistent[key]) >= threshold {
			field := key
			if i := strings.IndexByte(key, ':'); i >= 0 {
				field = key[:i]
			}
			return &ContentPattern{
				Pattern: "Persistent issue: " + field,
				Suggestion: fmt.Sprintf(
					"Consider making the requirement for %q more prominent in placeholders or adjusting validation rules if this is a common pattern.", field),
			}
		}
	}
	return nil
}
