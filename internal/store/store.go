// Package store is the SQLite backend. It mirrors the hosted record store's
// collections and logs every mutation to event_log in the same transaction.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lherron/levelsweep/internal/db"
	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/events"
)

// Store is the root store that provides access to per-collection stores.
type Store struct {
	db *db.DB

	Levels   *LevelStore
	Users    *UserStore
	Scores   *ScoreStore
	Settings *SettingsStore
}

// New creates a new Store wrapping the given database connection.
func New(database *db.DB) *Store {
	s := &Store{db: database}
	s.Levels = &LevelStore{store: s}
	s.Users = &UserStore{store: s}
	s.Scores = &ScoreStore{store: s}
	s.Settings = &SettingsStore{store: s}
	return s
}

// DB returns the underlying database connection (for read-only queries).
func (s *Store) DB() *db.DB {
	return s.db
}

// withTx executes fn within a transaction. If fn returns nil, the transaction
// is committed; otherwise it is rolled back.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx, ew *events.Writer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ew := events.NewWriter(s.db.DB, events.RunIDFromContext(ctx))
	if err := fn(tx, ew); err != nil {
		return err
	}

	return tx.Commit()
}

// requireAffected turns a zero-row mutation into a not-found error
func requireAffected(res sql.Result, entity domain.Entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &domain.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}

func rawOrNil(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}

// readTime parses a stored timestamp into dst. A value that does not parse
// leaves dst zero and is recorded in malformed so validation can report it.
func readTime(raw, field string, dst *time.Time, malformed *domain.Malformed) {
	t, err := domain.ValidateTimestamp(raw)
	if err != nil {
		malformed.Add(field, raw)
		return
	}
	*dst = t
}
