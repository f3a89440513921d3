package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/events"
)

// LevelStore handles level persistence operations.
type LevelStore struct {
	store *Store
}

const levelColumns = `id, title, author_id, author_name, data, is_public, created_at, last_modified`

// List returns every level ordered by id.
func (ls *LevelStore) List(ctx context.Context) ([]domain.Level, error) {
	rows, err := ls.store.db.QueryContext(ctx, `SELECT `+levelColumns+` FROM levels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	defer rows.Close()

	var levels []domain.Level
	for rows.Next() {
		l, err := scanLevel(rows)
		if err != nil {
			return nil, err
		}
		levels = append(levels, *l)
	}
	return levels, rows.Err()
}

// Get returns one level by id.
func (ls *LevelStore) Get(ctx context.Context, id string) (*domain.Level, error) {
	row := ls.store.db.QueryRowContext(ctx, `SELECT `+levelColumns+` FROM levels WHERE id = ?`, id)
	l, err := scanLevel(row)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Entity: domain.EntityLevel, ID: id}
	}
	return l, err
}

// Create inserts a level and logs a level.created event. An empty ID is
// replaced with a fresh UUID. Returns the stored id.
func (ls *LevelStore) Create(ctx context.Context, level domain.Level) (string, error) {
	if level.ID == "" {
		level.ID = uuid.New().String()
	}

	err := ls.store.withTx(ctx, func(tx *sql.Tx, ew *events.Writer) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO levels (`+levelColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			level.ID,
			level.Title,
			level.AuthorID,
			level.AuthorName,
			string(level.Data),
			level.IsPublic, // nil stays NULL
			domain.FormatTime(level.CreatedAt),
			domain.FormatTime(level.LastModified),
		)
		if err != nil {
			return fmt.Errorf("failed to create level: %w", err)
		}
		return ew.LogLevelCreated(tx, &level)
	})
	if err != nil {
		return "", err
	}
	return level.ID, nil
}

// Update writes the fields set in patch and logs a level.updated event.
func (ls *LevelStore) Update(ctx context.Context, id string, patch domain.LevelPatch) error {
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil
	}

	columns := make([]string, 0, len(fields))
	for col := range fields {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns)+1)
	for _, col := range columns {
		sets = append(sets, col+" = ?")
		args = append(args, fields[col])
	}
	args = append(args, id)

	return ls.store.withTx(ctx, func(tx *sql.Tx, ew *events.Writer) error {
		res, err := tx.ExecContext(ctx, `UPDATE levels SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return fmt.Errorf("failed to update level: %w", err)
		}
		if err := requireAffected(res, domain.EntityLevel, id); err != nil {
			return err
		}
		return ew.LogUpdated(tx, domain.EntityLevel, id, fields)
	})
}

// Delete removes a level and logs a level.deleted event.
func (ls *LevelStore) Delete(ctx context.Context, id string) error {
	return ls.store.withTx(ctx, func(tx *sql.Tx, ew *events.Writer) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM levels WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete level: %w", err)
		}
		if err := requireAffected(res, domain.EntityLevel, id); err != nil {
			return err
		}
		return ew.LogDeleted(tx, domain.EntityLevel, id)
	})
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLevel(row scanner) (*domain.Level, error) {
	var (
		l                     domain.Level
		data                  string
		isPublic              sql.NullBool
		createdAt, modifiedAt string
	)
	if err := row.Scan(&l.ID, &l.Title, &l.AuthorID, &l.AuthorName, &data, &isPublic, &createdAt, &modifiedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan level: %w", err)
	}
	l.Data = rawOrNil(data)
	if isPublic.Valid {
		l.IsPublic = domain.BoolPtr(isPublic.Bool)
	}
	readTime(createdAt, "created_at", &l.CreatedAt, &l.Malformed)
	readTime(modifiedAt, "last_modified", &l.LastModified, &l.Malformed)
	return &l, nil
}
