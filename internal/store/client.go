package store

import (
	"context"

	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/sweep"
)

// Client exposes a Store through the sweep.Client interface
type Client struct {
	s *Store
}

var _ sweep.Client = (*Client)(nil)

// NewClient wraps s
func NewClient(s *Store) *Client {
	return &Client{s: s}
}

func (c *Client) ListLevels(ctx context.Context) ([]domain.Level, error) {
	return c.s.Levels.List(ctx)
}

// CreateLevel ignores level.ID; the store assigns one.
func (c *Client) CreateLevel(ctx context.Context, level domain.Level) (string, error) {
	level.ID = ""
	return c.s.Levels.Create(ctx, level)
}

func (c *Client) UpdateLevel(ctx context.Context, id string, patch domain.LevelPatch) error {
	return c.s.Levels.Update(ctx, id, patch)
}

func (c *Client) DeleteLevel(ctx context.Context, id string) error {
	return c.s.Levels.Delete(ctx, id)
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	return c.s.Users.List(ctx)
}

func (c *Client) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) error {
	return c.s.Users.Update(ctx, id, patch)
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.s.Users.Delete(ctx, id)
}

func (c *Client) ListScores(ctx context.Context) ([]domain.Score, error) {
	return c.s.Scores.List(ctx)
}

func (c *Client) DeleteScore(ctx context.Context, id string) error {
	return c.s.Scores.Delete(ctx, id)
}

func (c *Client) GetBestScore(ctx context.Context, userID, levelID string) (*domain.Score, error) {
	return c.s.Scores.Best(ctx, userID, levelID)
}

func (c *Client) GetSettings(ctx context.Context, userID string) (*domain.Settings, error) {
	return c.s.Settings.Get(ctx, userID)
}

func (c *Client) SetSettings(ctx context.Context, settings domain.Settings) error {
	return c.s.Settings.Set(ctx, settings)
}
