// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validation

import (
	"strings"
	"testing"
)

func TestValidateJustification(t *testing.T) {
	valid := "Supplier confirmed the batch passed re-inspection; see report QA-2024-118 attached."

	tests := []struct {
		name          string
		justification string
		wantErr       bool
	}{
		{"valid", valid, false},
		{"exactly minimum", strings.Repeat("x", MinJustificationLength), false},
		{"empty", "", true},
		{"whitespace only", "   \n\t  ", true},
		{"too short", "Approved, looks fine to me.", true},
		{"one under minimum", strings.Repeat("x", MinJustificationLength-1), true},
		{"padding does not count", "ok" + strings.Repeat(" ", 60), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJustification(tt.justification)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateJustification(%q) error = %v, wantErr %v", tt.justification, err, tt.wantErr)
			}
		})
	}
}

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		// Valid identifiers
		{"uuid", "8f14e45f-ceea-4672-a1b5-0b7f3a6e2c10", false},
		{"simple", "nca-042", false},
		{"email style", "qa.supervisor_2", false},
		{"max length", strings.Repeat("a", 64), false},

		// Invalid identifiers - key injection attempts
		{"empty", "", true},
		{"slash", "nca/042", true},
		{"key traversal", "../approval/abc", true},
		{"spaces", "nca 042", true},
		{"newline", "nca\n042", true},
		{"too long", strings.Repeat("a", 65), true},
		{"starts with dot", ".hidden", true},
		{"starts with hyphen", "-flag", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdentifier(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeJustification(t *testing.T) {
	valid := "Customer accepted concession C-104 for this non-conformance after QA review on Friday."

	tests := []struct {
		name          string
		justification string
		want          string
		wantErr       bool
	}{
		{"passthrough", valid, valid, false},
		{"trimmed", "  " + valid + "  ", valid, false},
		{"rejected", "too short", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeJustification(tt.justification)
			if (err != nil) != tt.wantErr {
				t.Errorf("SanitizeJustification(%q) error = %v, wantErr %v", tt.justification, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("SanitizeJustification(%q) = %q, want %q", tt.justification, got, tt.want)
			}
		})
	}
}
