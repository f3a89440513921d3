// Package sweep holds the reconciliation core: snapshot loading, canonical
// indexing, duplicate/orphan/defect/test-data detection and planning.
//
// Nothing in this package mutates the store. Detectors read a Snapshot and
// return Results; Plan orders them into Actions; package bulk executes them.
package sweep

import (
	"context"

	"github.com/lherron/levelsweep/internal/domain"
)

// Client is the set of store operations the core consumes. Backends live in
// internal/store (SQLite) and internal/pgstore (PostgreSQL).
type Client interface {
	// ListLevels returns every level record.
	ListLevels(ctx context.Context) ([]domain.Level, error)
	// CreateLevel inserts a level and returns the store-assigned id.
	// A non-empty level.ID is ignored.
	CreateLevel(ctx context.Context, level domain.Level) (string, error)
	// UpdateLevel writes only the fields set in patch.
	UpdateLevel(ctx context.Context, id string, patch domain.LevelPatch) error
	DeleteLevel(ctx context.Context, id string) error

	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, id string, patch domain.UserPatch) error
	// DeleteUser removes the user and the user's settings.
	DeleteUser(ctx context.Context, id string) error

	ListScores(ctx context.Context) ([]domain.Score, error)
	DeleteScore(ctx context.Context, id string) error
	// GetBestScore returns the lowest-stroke score for the pair, or a
	// *domain.NotFoundError.
	GetBestScore(ctx context.Context, userID, levelID string) (*domain.Score, error)

	// GetSettings returns a *domain.NotFoundError when the user has none.
	GetSettings(ctx context.Context, userID string) (*domain.Settings, error)
	SetSettings(ctx context.Context, settings domain.Settings) error
}
