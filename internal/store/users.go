package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/events"
)

// UserStore handles user persistence operations.
type UserStore struct {
	store *Store
}

// List returns every user ordered by id.
func (us *UserStore) List(ctx context.Context) ([]domain.User, error) {
	rows, err := us.store.db.QueryContext(ctx, `
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
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Email, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		readTime(createdAt, "created_at", &u.CreatedAt, &u.Malformed)
		users = append(users, u)
	}
	return users, rows.Err()
}

// Create inserts a user. An empty ID is replaced with a fresh UUID.
func (us *UserStore) Create(ctx context.Context, user domain.User) (string, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	err := us.store.withTx(ctx, func(tx *sql.Tx, ew *events.Writer) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, username, display_name, email, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, user.ID, user.Username, user.DisplayName, user.Email, domain.FormatTime(user.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return ew.LogEvent(tx, &events.Event{ResourceType: domain.EntityUser, ResourceID: user.ID, EventType: "user.created"})
	})
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// Update writes the identity fields set in patch.
func (us *UserStore) Update(ctx context.Context, id string, patch domain.UserPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	changes := make(map[string]interface{})
	if patch.Username != nil {
		changes["username"] = *patch.Username
	}
	if patch.DisplayName != nil {
		changes["display_name"] = *patch.DisplayName
	}

	return us.store.withTx(ctx, func(tx *sql.Tx, ew *events.Writer) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE users SET
				username = COALESCE(?, username),
				display_name = COALESCE(?, display_name)
			WHERE id = ?
		`, patch.Username, patch.DisplayName, id)
		if err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		if err := requireAffected(res, domain.EntityUser, id); err != nil {
			return err
		}
		return ew.LogUpdated(tx, domain.EntityUser, id, changes)
	})
}

// Delete removes a user together with the user's settings.
func (us *UserStore) Delete(ctx context.Context, id string) error {
	return us.store.withTx(ctx, func(tx *sql.Tx, ew *events.Writer) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if err := requireAffected(res, domain.EntityUser, id); err != nil {
			return err
		}
		if err := ew.LogDeleted(tx, domain.EntityUser, id); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx, `DELETE FROM settings WHERE user_id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete settings: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return ew.LogDeleted(tx, domain.EntitySettings, id)
		}
		return nil
	})
}
