// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/enforcement"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/forms"
)

// Key layout:
//
//	log/<formType>/<formID>/<userID>/<attempt %06d>  -> AuditEntry JSON
//	logid/<entryID>                                   -> full log key
//	approval/<logID>                                  -> ManagerApproval JSON
//	trace/<traceID>                                   -> DecisionTrace JSON
//
// Attempts are zero-padded so the natural key order is attempt order.

// Store is the badger-backed audit store. It implements
// enforcement.AttemptSource, ActionRecorder, TraceRecorder, and
// ApprovalRecorder. Safe for concurrent use.
type Store struct {
	db       *badger.DB
	log      *slog.Logger
	gcStop   chan struct{}
	gcDone   chan struct{}
	gcTicker *time.Ticker
}

// NewStore opens a store with the given configuration.
func NewStore(cfg Config) (*Store, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		db:  db,
		log: log.With(slog.String("component", "audit_store")),
	}
	if cfg.GCInterval > 0 {
		s.startGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return s, nil
}

// NewInMemoryStore opens a throwaway store for tests.
func NewInMemoryStore() (*Store, error) {
	return NewStore(InMemoryConfig())
}

// startGC runs value log garbage collection on a ticker until Close.
func (s *Store) startGC(interval time.Duration, ratio float64) {
	s.gcStop = make(chan struct{})
	s.gcDone = make(chan struct{})
	s.gcTicker = time.NewTicker(interval)
	go func() {
		defer close(s.gcDone)
		defer s.gcTicker.Stop()
		for {
			select {
			case <-s.gcStop:
				return
			case <-s.gcTicker.C:
				// ErrNoRewrite just means there was nothing to collect.
				if err := s.db.RunValueLogGC(ratio); err != nil && err != badger.ErrNoRewrite {
					s.log.Warn("Value log GC failed", slog.Any("error", err))
				}
			}
		}
	}()
}

// Close stops GC and closes the database.
func (s *Store) Close() error {
	if s.gcStop != nil {
		close(s.gcStop)
		<-s.gcDone
	}
	return s.db.Close()
}

func logPrefix(formType forms.FormType, formID, userID string) []byte {
	return []byte(fmt.Sprintf("log/%s/%s/%s/", formType, formID, userID))
}

func logKey(formType forms.FormType, formID, userID string, attempt int) []byte {
	return []byte(fmt.Sprintf("log/%s/%s/%s/%06d", formType, formID, userID, attempt))
}

// GetAttemptNumber returns the next attempt number for the form: the
// highest recorded attempt plus one, or 1 when the form is new or has
// no id yet.
func (s *Store) GetAttemptNumber(ctx context.Context, formType forms.FormType, formID, userID string) (int, error) {
	if formID == "" {
		return 1, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	highest := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := logPrefix(formType, formID, userID)
		// Reverse-seek to just past the prefix range, the first hit is
		// the highest attempt.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			if _, err := fmt.Sscanf(string(key[len(prefix):]), "%d", &highest); err != nil {
				return fmt.Errorf("malformed log key %q: %w", key, err)
			}
			return nil
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("read attempt count: %w", err)
	}
	return highest + 1, nil
}

// RecordEnforcementAction appends an audit entry and returns its id.
func (s *Store) RecordEnforcementAction(ctx context.Context, entry enforcement.AuditEntry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("marshal audit entry: %w", err)
	}

	formID := entry.FormID
	if formID == "" {
		// Unsaved forms still get audited; they group under their user.
		formID = "unsaved"
	}
	key := logKey(entry.FormType, formID, entry.UserID, entry.AttemptNumber)

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, payload); err != nil {
			return err
		}
		return txn.Set([]byte("logid/"+entry.ID), key)
	})
	if err != nil {
		return "", fmt.Errorf("write audit entry: %w", err)
	}

	s.log.Debug("Recorded enforcement action",
		slog.String("id", entry.ID),
		slog.String("form_type", string(entry.FormType)),
		slog.Int("attempt", entry.AttemptNumber),
		slog.String("action", string(entry.Action)))
	return entry.ID, nil
}

// ListAttempts returns every recorded attempt for a form in attempt
// order, for escalation context and pattern analysis.
func (s *Store) ListAttempts(ctx context.Context, formType forms.FormType, formID, userID string) ([]enforcement.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []enforcement.AuditEntry
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := logPrefix(formType, formID, userID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var entry enforcement.AuditEntry
				if err := json.Unmarshal(val, &entry); err != nil {
					return fmt.Errorf("unmarshal audit entry: %w", err)
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return entries, nil
}

// GetEntry loads an audit entry by id.
func (s *Store) GetEntry(ctx context.Context, id string) (*enforcement.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry enforcement.AuditEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("logid/" + id))
		if err != nil {
			return err
		}
		var key []byte
		if err := item.Value(func(val []byte) error {
			key = append([]byte{}, val...)
			return nil
		}); err != nil {
			return err
		}
		item, err = txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load audit entry %s: %w", id, err)
	}
	return &entry, nil
}

// RecordManagerApproval stores a manager's sign-off against a log
// entry. The referenced entry must exist.
func (s *Store) RecordManagerApproval(ctx context.Context, approval enforcement.ManagerApproval) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if approval.Timestamp.IsZero() {
		approval.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(approval)
	if err != nil {
		return fmt.Errorf("marshal approval: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte("logid/" + approval.LogID)); err != nil {
			return fmt.Errorf("%w: %s", enforcement.ErrUnknownLogID, approval.LogID)
		}
		return txn.Set([]byte("approval/"+approval.LogID), payload)
	})
	if err != nil {
		return fmt.Errorf("record manager approval: %w", err)
	}

	s.log.Info("Recorded manager approval",
		slog.String("log_id", approval.LogID),
		slog.String("manager_id", approval.ManagerID),
		slog.Bool("approved", approval.Approved))
	return nil
}

// GetApproval loads the approval for a log entry, nil when none exists.
func (s *Store) GetApproval(ctx context.Context, logID string) (*enforcement.ManagerApproval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var approval enforcement.ManagerApproval
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("approval/" + logID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &approval)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load approval for %s: %w", logID, err)
	}
	return &approval, nil
}

// RecordDecisionTrace stores an explainability trace.
func (s *Store) RecordDecisionTrace(ctx context.Context, trace enforcement.DecisionTrace) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(trace)
	if err != nil {
		return fmt.Errorf("marshal decision trace: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("trace/"+trace.ID), payload)
	})
	if err != nil {
		return fmt.Errorf("record decision trace: %w", err)
	}
	return nil
}
