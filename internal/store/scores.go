package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/events"
)

// ScoreStore handles score persistence operations.
type ScoreStore struct {
	store *Store
}

// List returns every score ordered by id.
func (ss *ScoreStore) List(ctx context.Context) ([]domain.Score, error) {
	rows, err := ss.store.db.QueryContext(ctx, `
		SELECT id, level_id, user_id, strokes, created_at
		FROM scores ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	var scores []domain.Score
	for rows.Next() {
		s, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		scores = append(scores, *s)
	}
	return scores, rows.Err()
}

// Create inserts a score. An empty ID is replaced with a fresh UUID.
func (ss *ScoreStore) Create(ctx context.Context, score domain.Score) (string, error) {
	if score.ID == "" {
		score.ID = uuid.New().String()
	}
	err := ss.store.withTx(ctx, func(tx *sql.Tx, ew *events.Writer) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO scores (id, level_id, user_id, strokes, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, score.ID, score.LevelID, score.UserID, score.Strokes, domain.FormatTime(score.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to create score: %w", err)
		}
		return ew.LogEvent(tx, &events.Event{ResourceType: domain.EntityScore, ResourceID: score.ID, EventType: "score.created"})
	})
	if err != nil {
		return "", err
	}
	return score.ID, nil
}

// Delete removes a score.
func (ss *ScoreStore) Delete(ctx context.Context, id string) error {
	return ss.store.withTx(ctx, func(tx *sql.Tx, ew *events.Writer) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM scores WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete score: %w", err)
		}
		if err := requireAffected(res, domain.EntityScore, id); err != nil {
			return err
		}
		return ew.LogDeleted(tx, domain.EntityScore, id)
	})
}

// Best returns the user's lowest-stroke score on a level. Ties go to the
// earliest score; undated scores rank last.
func (ss *ScoreStore) Best(ctx context.Context, userID, levelID string) (*domain.Score, error) {
	row := ss.store.db.QueryRowContext(ctx, `
		SELECT id, level_id, user_id, strokes, created_at
		FROM scores
		WHERE user_id = ? AND level_id = ?
		ORDER BY strokes, created_at = '', created_at, id
		LIMIT 1
	`, userID, levelID)
	s, err := scanScore(row)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Entity: domain.EntityScore, ID: userID + "/" + levelID}
	}
	return s, err
}

func scanScore(row scanner) (*domain.Score, error) {
	var s domain.Score
	var createdAt string
	if err := row.Scan(&s.ID, &s.LevelID, &s.UserID, &s.Strokes, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan score: %w", err)
	}
	// an unreadable created_at ranks as undated
	s.CreatedAt, _ = domain.ValidateTimestamp(createdAt)
	return &s, nil
}
