// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/forms"
)

// loadForm reads a YAML form file and resolves the submission union by
// its form_type key.
func loadForm(path string) (forms.Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading form file: %w", err)
	}

	var head struct {
		FormType string `yaml:"form_type"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parsing form file: %w", err)
	}

	switch forms.FormType(head.FormType) {
	case forms.FormNCA:
		var sub forms.NCASubmission
		if err := yaml.Unmarshal(data, &sub); err != nil {
			return nil, fmt.Errorf("parsing nca form: %w", err)
		}
		return &sub, nil
	case forms.FormMJC:
		var sub forms.MJCSubmission
		if err := yaml.Unmarshal(data, &sub); err != nil {
			return nil, fmt.Errorf("parsing mjc form: %w", err)
		}
		return &sub, nil
	case "":
		return nil, fmt.Errorf("form file %s has no form_type (want nca or mjc)", path)
	default:
		return nil, fmt.Errorf("unknown form_type %q in %s", head.FormType, path)
	}
}
