package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/events"
)

// SettingsStore handles per-user settings.
type SettingsStore struct {
	store *Store
}

// Get returns the user's settings, or a *domain.NotFoundError.
func (ss *SettingsStore) Get(ctx context.Context, userID string) (*domain.Settings, error) {
	var s domain.Settings
	var data, updatedAt string
	err := ss.store.db.QueryRowContext(ctx, `
		SELECT user_id, data, updated_at FROM settings WHERE user_id = ?
	`, userID).Scan(&s.UserID, &data, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Entity: domain.EntitySettings, ID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	s.Data = rawOrNil(data)
	readTime(updatedAt, "updated_at", &s.UpdatedAt, &s.Malformed)
	return &s, nil
}

// Set creates or replaces the user's settings.
func (ss *SettingsStore) Set(ctx context.Context, settings domain.Settings) error {
	if settings.UserID == "" {
		return fmt.Errorf("settings: user id is required")
	}
	return ss.store.withTx(ctx, func(tx *sql.Tx, ew *events.Writer) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings (user_id, data, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
		`, settings.UserID, string(settings.Data), domain.FormatTime(settings.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to set settings: %w", err)
		}
		return ew.LogSettingsSet(tx, &settings)
	})
}
