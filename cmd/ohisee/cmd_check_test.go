// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/forms"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/rules"
)

const cleanNCAForm = `form_type: nca
nc_type: finished-goods
nc_description: "Found 3 damaged cartons (batch B-2024-0156) in receiving area at 09:30. Cardboard crushed on one side, product exposed to open air during transit handling."
`

const poorNCAForm = `form_type: nca
nc_type: finished-goods
nc_description: "Product was bad"
root_cause_analysis: "Operator error caused the issue"
corrective_action: "Will fix it"
`

// writeForm drops a YAML form file into a temp dir and returns its path.
func writeForm(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// newTestCmd builds a command whose output streams both land in buf.
// cobra routes Printf to the error stream and JSON encoders write to
// the out stream, so the tests capture both.
func newTestCmd(buf *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	return cmd
}

func TestLoadForm(t *testing.T) {
	t.Run("resolves NCA form", func(t *testing.T) {
		path := writeForm(t, "nca.yaml", cleanNCAForm)
		sub, err := loadForm(path)
		require.NoError(t, err)
		nca, ok := sub.(*forms.NCASubmission)
		require.True(t, ok, "expected *forms.NCASubmission, got %T", sub)
		assert.Equal(t, forms.CategoryFinishedGoods, nca.NCType)
		assert.Contains(t, nca.NCDescription, "batch B-2024-0156")
	})

	t.Run("resolves MJC form", func(t *testing.T) {
		path := writeForm(t, "mjc.yaml", `form_type: mjc
maintenance_category: mechanical
description_required: "Conveyor belt drive on line 2 slipping under load since 08:00, belt tension out of range."
machine_equipment: "Conveyor CV-02"
`)
		sub, err := loadForm(path)
		require.NoError(t, err)
		mjc, ok := sub.(*forms.MJCSubmission)
		require.True(t, ok, "expected *forms.MJCSubmission, got %T", sub)
		assert.Equal(t, "Conveyor CV-02", mjc.MachineEquipment)
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name    string
			content string
			wantErr string
		}{
			{
				name:    "missing form_type",
				content: "nc_type: finished-goods\n",
				wantErr: "no form_type",
			},
			{
				name:    "unknown form_type",
				content: "form_type: grn\n",
				wantErr: `unknown form_type "grn"`,
			},
			{
				name:    "malformed yaml",
				content: "form_type: [nca\n",
				wantErr: "parsing form file",
			},
			{
				name:    "wrong field shape",
				content: "form_type: nca\nquantity: \"twelve cartons\"\n",
				wantErr: "parsing nca form",
			},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				path := writeForm(t, "form.yaml", tc.content)
				_, err := loadForm(path)
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			})
		}
	})

	t.Run("unreadable file", func(t *testing.T) {
		_, err := loadForm(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading form file")
	})
}

func TestRunCheck_CleanFormPasses(t *testing.T) {
	checkJSON = false
	path := writeForm(t, "nca.yaml", cleanNCAForm)

	var buf bytes.Buffer
	err := runCheck(newTestCmd(&buf), []string{path})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "All rule checks passed.")
}

func TestRunCheck_PoorFormReportsIssues(t *testing.T) {
	checkJSON = false
	path := writeForm(t, "nca.yaml", poorNCAForm)

	var buf bytes.Buffer
	err := runCheck(newTestCmd(&buf), []string{path})

	require.ErrorIs(t, err, errQualityFailed)
	out := buf.String()
	assert.Contains(t, out, rules.FieldDescription)
	assert.Contains(t, out, rules.FieldRootCause)
	assert.Contains(t, out, rules.FieldCorrectiveAction)
	assert.Contains(t, out, "issue(s) found.")
}

func TestRunCheck_JSONOutput(t *testing.T) {
	checkJSON = true
	t.Cleanup(func() { checkJSON = false })
	path := writeForm(t, "nca.yaml", poorNCAForm)

	var buf bytes.Buffer
	err := runCheck(newTestCmd(&buf), []string{path})

	require.ErrorIs(t, err, errQualityFailed)
	var result rules.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Issues)
	assert.NotEmpty(t, result.VaguePhrases)
}

func TestRunCheck_LoadErrorIsNotQualityFailure(t *testing.T) {
	checkJSON = false
	var buf bytes.Buffer
	err := runCheck(newTestCmd(&buf), []string{filepath.Join(t.TempDir(), "missing.yaml")})

	require.Error(t, err)
	assert.NotErrorIs(t, err, errQualityFailed)
}
