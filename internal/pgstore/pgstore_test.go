package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lherron/levelsweep/internal/domain"
)

func TestLevelUpdate(t *testing.T) {
	title := "Ramp"
	data := json.RawMessage(`{}`)
	modified := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		patch     domain.LevelPatch
		wantQuery string
		wantArgs  int
	}{
		{"empty", domain.LevelPatch{}, "", 0},
		{"title", domain.LevelPatch{Title: &title}, "UPDATE levels SET title = $1 WHERE id = $2", 2},
		{
			"several",
			domain.LevelPatch{Title: &title, Data: &data, IsPublic: domain.BoolPtr(true), LastModified: &modified},
			"UPDATE levels SET title = $1, data = $2, is_public = $3, last_modified = $4 WHERE id = $5",
			5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := levelUpdate("L1", tt.patch)
			assert.Equal(t, tt.wantQuery, query)
			assert.Len(t, args, tt.wantArgs)
			if tt.wantArgs > 0 {
				assert.Equal(t, "L1", args[len(args)-1])
			}
		})
	}
}

func TestNullTime(t *testing.T) {
	assert.Nil(t, nullTime(time.Time{}))
	assert.True(t, timeOrZero(nil).IsZero())

	local := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	got := nullTime(local)
	require.NotNil(t, got)
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(local))
}

// connect returns a client on an emptied store, or skips when no test
// database is configured.
func connect(t *testing.T) *Client {
	t.Helper()
	url := os.Getenv("LEVELSWEEP_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LEVELSWEEP_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	c, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	require.NoError(t, c.EnsureSchema(ctx))
	_, err = c.pool.Exec(ctx, `TRUNCATE levels, users, scores, settings`)
	require.NoError(t, err)
	return c
}

func TestClient_SchemaCheckIsReadOnly(t *testing.T) {
	c := connect(t)
	ctx := context.Background()
	require.NoError(t, c.RequiresMigrationError(ctx))

	_, err := c.pool.Exec(ctx, `DROP SCHEMA IF EXISTS levelsweep_empty CASCADE; CREATE SCHEMA levelsweep_empty`)
	require.NoError(t, err)
	t.Cleanup(func() {
		c.pool.Exec(context.Background(), `DROP SCHEMA IF EXISTS levelsweep_empty CASCADE`)
	})

	cfg, err := pgxpool.ParseConfig(os.Getenv("LEVELSWEEP_TEST_DATABASE_URL"))
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = "levelsweep_empty"
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	empty := &Client{pool: pool}
	defer empty.Close()

	missing, err := empty.MissingTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, Tables, missing)
	err = empty.RequiresMigrationError(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "levelsweep migrate")

	// checking twice must not have created anything
	missing, err = empty.MissingTables(ctx)
	require.NoError(t, err)
	assert.Len(t, missing, len(Tables))

	require.NoError(t, empty.EnsureSchema(ctx))
	missing, err = empty.MissingTables(ctx)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestClient_Levels(t *testing.T) {
	c := connect(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	id, err := c.CreateLevel(ctx, domain.Level{ID: "ignored", Title: "Loop", AuthorID: "U1", Data: json.RawMessage(`{"holes":[]}`), CreatedAt: created})
	require.NoError(t, err)
	assert.NotEqual(t, "ignored", id)

	title := "Loop II"
	require.NoError(t, c.UpdateLevel(ctx, id, domain.LevelPatch{Title: &title, IsPublic: domain.BoolPtr(true)}))

	levels, err := c.ListLevels(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, "Loop II", levels[0].Title)
	assert.True(t, levels[0].Public())
	assert.True(t, levels[0].CreatedAt.Equal(created))
	assert.True(t, levels[0].LastModified.IsZero())

	require.NoError(t, c.DeleteLevel(ctx, id))
	assert.True(t, errors.Is(c.DeleteLevel(ctx, id), domain.ErrNotFound))
}

func TestClient_UsersAndSettings(t *testing.T) {
	c := connect(t)
	ctx := context.Background()

	_, err := c.pool.Exec(ctx, `INSERT INTO users (id, username) VALUES ('U1', 'alice')`)
	require.NoError(t, err)
	require.NoError(t, c.SetSettings(ctx, domain.Settings{UserID: "U1", Data: json.RawMessage(`{"sound":true}`)}))

	display := "Alice"
	require.NoError(t, c.UpdateUser(ctx, "U1", domain.UserPatch{DisplayName: &display}))
	users, err := c.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "Alice", users[0].DisplayName)

	require.NoError(t, c.DeleteUser(ctx, "U1"))
	_, err = c.GetSettings(ctx, "U1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestClient_BestScore(t *testing.T) {
	c := connect(t)
	ctx := context.Background()

	_, err := c.pool.Exec(ctx, `
		INSERT INTO scores (id, level_id, user_id, strokes, created_at) VALUES
			('S1', 'L1', 'U1', 4, '2024-03-01T12:00:00Z'),
			('S2', 'L1', 'U1', 2, NULL),
			('S3', 'L1', 'U1', 2, '2024-03-01T13:00:00Z')
	`)
	require.NoError(t, err)

	best, err := c.GetBestScore(ctx, "U1", "L1")
	require.NoError(t, err)
	assert.Equal(t, "S3", best.ID)

	_, err = c.GetBestScore(ctx, "U2", "L1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
