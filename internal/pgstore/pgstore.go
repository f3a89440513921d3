// Package pgstore is the Postgres backend, used against the hosted record
// store. It implements sweep.Client on a pgx connection pool.
package pgstore

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lherron/levelsweep/internal/sweep"
)

//go:embed schema.sql
var schema string

// Client talks to the hosted store
type Client struct {
	pool *pgxpool.Pool
}

var _ sweep.Client = (*Client)(nil)

// Connect opens a pool for databaseURL and checks that the server answers
func Connect(ctx context.Context, databaseURL string) (*Client, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database url is required for the postgres backend (set LEVELSWEEP_DATABASE_URL or --database-url)")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot connect to record store: %w", err)
	}
	return &Client{pool: pool}, nil
}

// Close releases every pooled connection
func (c *Client) Close() {
	c.pool.Close()
}

// Tables lists the collections the record store must hold
var Tables = []string{"levels", "users", "scores", "settings"}

// MissingTables returns the record tables absent from the current schema.
// It only reads the catalog.
func (c *Client) MissingTables(ctx context.Context) ([]string, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = ANY($1)
	`, Tables)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	present, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	have := make(map[string]bool, len(present))
	for _, name := range present {
		have[name] = true
	}
	var missing []string
	for _, name := range Tables {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	return missing, nil
}

// RequiresMigrationError returns a descriptive error when any record table
// is missing. Returns nil if the schema is complete.
func (c *Client) RequiresMigrationError(ctx context.Context) error {
	missing, err := c.MissingTables(ctx)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("record store is missing table(s) %s. Run 'levelsweep migrate' to create them",
		strings.Join(missing, ", "))
}

// EnsureSchema creates any missing table or index. Only the migrate command
// calls it.
func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// nullTime maps the zero time to NULL
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
