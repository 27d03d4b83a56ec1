// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package enforcement

import (
	"context"
	"errors"
	"testing"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/forms"
)

type fakeRecorder struct {
	err     error
	entries []AuditEntry
}

func (f *fakeRecorder) RecordEnforcementAction(_ context.Context, entry AuditEntry) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.entries = append(f.entries, entry)
	return entry.ID, nil
}

func TestEmit_FillsIdentityAndTimestamp(t *testing.T) {
	recorder := &fakeRecorder{}
	emitter := NewEmitter(recorder, nil, nil)

	id := emitter.Emit(context.Background(), AuditEntry{
		FormType:      forms.FormNCA,
		UserID:        "user-1",
		AttemptNumber: 1,
		Level:         LevelLenient,
		Action:        ActionHintShown,
	})
	if id == "" {
		t.Fatal("expected a log id")
	}
	if len(recorder.entries) != 1 {
		t.Fatalf("recorded %d entries, want 1", len(recorder.entries))
	}
	if recorder.entries[0].Timestamp.IsZero() {
		t.Error("timestamp not filled")
	}
}

func TestEmit_StoreFailureIsSwallowed(t *testing.T) {
	emitter := NewEmitter(&fakeRecorder{err: errors.New("store down")}, nil, nil)

	// Must not panic or propagate; the decision already stands.
	if id := emitter.Emit(context.Background(), AuditEntry{UserID: "user-1"}); id != "" {
		t.Errorf("failed write returned id %q", id)
	}
}

func TestEmitTrace_NilRecorderIsNoOp(t *testing.T) {
	emitter := NewEmitter(&fakeRecorder{}, nil, nil)
	emitter.EmitTrace(context.Background(), DecisionTrace{UserID: "user-1"})
}

func TestActionFor(t *testing.T) {
	tests := []struct {
		name     string
		decision Decision
		want     Action
	}{
		{"approval dominates", Decision{RequiresManagerApproval: true, Errors: []BlockingError{{}}}, ActionManagerApprovalRequired},
		{"blocking errors", Decision{Errors: []BlockingError{{}}}, ActionSubmissionBlocked},
		{"advisory only", Decision{Requirements: []Requirement{{}}}, ActionHintShown},
		{"clean", Decision{}, ActionSubmissionAllowed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ActionFor(tc.decision); got != tc.want {
				t.Errorf("ActionFor = %s, want %s", got, tc.want)
			}
		})
	}
}
