package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lherron/levelsweep/internal/domain"
)

func (c *Client) ListLevels(ctx context.Context) ([]domain.Level, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, title, author_id, author_name, data, is_public, created_at, last_modified
		FROM levels ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	defer rows.Close()

	var levels []domain.Level
	for rows.Next() {
		var (
			l                     domain.Level
			data                  string
			createdAt, modifiedAt *time.Time
		)
		if err := rows.Scan(&l.ID, &l.Title, &l.AuthorID, &l.AuthorName, &data, &l.IsPublic, &createdAt, &modifiedAt); err != nil {
			return nil, fmt.Errorf("failed to scan level: %w", err)
		}
		if data != "" {
			l.Data = []byte(data)
		}
		l.CreatedAt = timeOrZero(createdAt)
		l.LastModified = timeOrZero(modifiedAt)
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

// CreateLevel inserts level under a fresh id; level.ID is ignored.
func (c *Client) CreateLevel(ctx context.Context, level domain.Level) (string, error) {
	id := uuid.New().String()
	_, err := c.pool.Exec(ctx, `
		INSERT INTO levels (id, title, author_id, author_name, data, is_public, created_at, last_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, level.Title, level.AuthorID, level.AuthorName, string(level.Data), level.IsPublic,
		nullTime(level.CreatedAt), nullTime(level.LastModified))
	if err != nil {
		return "", fmt.Errorf("failed to create level: %w", err)
	}
	return id, nil
}

func (c *Client) UpdateLevel(ctx context.Context, id string, patch domain.LevelPatch) error {
	query, args := levelUpdate(id, patch)
	if query == "" {
		return nil
	}
	tag, err := c.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update level: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: domain.EntityLevel, ID: id}
	}
	return nil
}

// levelUpdate builds the UPDATE for the fields set in patch. It returns an
// empty query for an empty patch.
func levelUpdate(id string, patch domain.LevelPatch) (string, []interface{}) {
	var sets []string
	var args []interface{}
	set := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.AuthorName != nil {
		set("author_name", *patch.AuthorName)
	}
	if patch.Data != nil {
		set("data", string(*patch.Data))
	}
	if patch.IsPublic != nil {
		set("is_public", *patch.IsPublic)
	}
	if patch.LastModified != nil {
		set("last_modified", nullTime(*patch.LastModified))
	}
	if len(sets) == 0 {
		return "", nil
	}
	args = append(args, id)
	return fmt.Sprintf("UPDATE levels SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args)), args
}

func (c *Client) DeleteLevel(ctx context.Context, id string) error {
	return c.deleteByID(ctx, "levels", domain.EntityLevel, id)
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, username, display_name, email, created_at
		FROM users ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		var createdAt *time.Time
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Email, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.CreatedAt = timeOrZero(createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (c *Client) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	tag, err := c.pool.Exec(ctx, `
		UPDATE users SET
			username = COALESCE($1, username),
			display_name = COALESCE($2, display_name)
		WHERE id = $3
	`, patch.Username, patch.DisplayName, id)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: domain.EntityUser, ID: id}
	}
	return nil
}

// DeleteUser removes the user and the user's settings in one transaction
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return &domain.NotFoundError{Entity: domain.EntityUser, ID: id}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM settings WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete settings: %w", err)
		}
		return nil
	})
}

func (c *Client) ListScores(ctx context.Context) ([]domain.Score, error) {
	rows, err := c.pool.Query(ctx, `
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

func (c *Client) DeleteScore(ctx context.Context, id string) error {
	return c.deleteByID(ctx, "scores", domain.EntityScore, id)
}

// GetBestScore returns the lowest-stroke score; ties go to the earliest,
// undated scores last.
func (c *Client) GetBestScore(ctx context.Context, userID, levelID string) (*domain.Score, error) {
	row := c.pool.QueryRow(ctx, `
		SELECT id, level_id, user_id, strokes, created_at
		FROM scores
		WHERE user_id = $1 AND level_id = $2
		ORDER BY strokes, created_at ASC NULLS LAST, id
		LIMIT 1
	`, userID, levelID)
	s, err := scanScore(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: domain.EntityScore, ID: userID + "/" + levelID}
	}
	return s, err
}

func (c *Client) GetSettings(ctx context.Context, userID string) (*domain.Settings, error) {
	var s domain.Settings
	var data string
	var updatedAt *time.Time
	err := c.pool.QueryRow(ctx, `
		SELECT user_id, data, updated_at FROM settings WHERE user_id = $1
	`, userID).Scan(&s.UserID, &data, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: domain.EntitySettings, ID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if data != "" {
		s.Data = []byte(data)
	}
	s.UpdatedAt = timeOrZero(updatedAt)
	return &s, nil
}

func (c *Client) SetSettings(ctx context.Context, settings domain.Settings) error {
	if settings.UserID == "" {
		return fmt.Errorf("settings: user id is required")
	}
	_, err := c.pool.Exec(ctx, `
		INSERT INTO settings (user_id, data, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, settings.UserID, string(settings.Data), nullTime(settings.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to set settings: %w", err)
	}
	return nil
}

func (c *Client) deleteByID(ctx context.Context, table string, entity domain.Entity, id string) error {
	tag, err := c.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", entity, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}

func scanScore(row pgx.Row) (*domain.Score, error) {
	var s domain.Score
	var createdAt *time.Time
	if err := row.Scan(&s.ID, &s.LevelID, &s.UserID, &s.Strokes, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan score: %w", err)
	}
	s.CreatedAt = timeOrZero(createdAt)
	return &s, nil
}
