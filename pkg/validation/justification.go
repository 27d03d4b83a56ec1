// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that end up in
// database keys or audit records. Using these validators prevents key
// injection into the enforcement store and keeps manager approvals auditable.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinJustificationLength is the minimum length of a manager override
// justification. Overrides are audited, and a one-liner like "ok" gives
// an auditor nothing to review.
const MinJustificationLength = 50

// identifierPattern matches valid form, user, and approver identifiers.
// Allows: letters, digits, dots, hyphens, underscores.
// Slashes are excluded because identifiers become key segments in the
// enforcement store.
// Max length: 64 characters.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-]{0,63}$`)

// ValidateJustification validates a manager override justification.
//
// A valid justification:
//   - Is at least MinJustificationLength characters after trimming
//   - Contains more than whitespace
//
// Returns an error describing the shortfall if invalid.
//
// Example:
//
//	if err := validation.ValidateJustification(req.Justification); err != nil {
//	    return fmt.Errorf("invalid justification: %w", err)
//	}
//	// Safe to record in the approval audit trail
func ValidateJustification(justification string) error {
	trimmed := strings.TrimSpace(justification)
	if trimmed == "" {
		return fmt.Errorf("justification cannot be empty")
	}

	if n := utf8.RuneCountInString(trimmed); n < MinJustificationLength {
		return fmt.Errorf("justification too short: %d characters (minimum %d)", n, MinJustificationLength)
	}

	return nil
}

// ValidateIdentifier validates a form, user, or approver identifier.
//
// Valid identifiers:
//   - 1-64 characters
//   - Letters, digits, dots, hyphens, underscores
//   - No slashes, spaces, or control characters
//
// Returns an error if the identifier is invalid.
func ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("identifier cannot be empty")
	}

	if !identifierPattern.MatchString(id) {
		return fmt.Errorf("invalid identifier: %q (must be 1-64 alphanumeric chars, dots, hyphens, or underscores)", id)
	}

	return nil
}

// SanitizeJustification normalizes and validates a justification.
// Returns the trimmed text if valid, or an error if invalid.
func SanitizeJustification(justification string) (string, error) {
	trimmed := strings.TrimSpace(justification)
	if err := ValidateJustification(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}
