package sweep

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/keys"
	"github.com/lherron/levelsweep/internal/logging"
)

// settingsFetchLimit bounds concurrent GetSettings calls during loading
const settingsFetchLimit = 8

// LoadOptions selects which collections a run needs
type LoadOptions struct {
	Users    bool
	Scores   bool
	Settings bool // requires Users
}

// Snapshot is the store state a run reasons about. It is taken once, at the
// start of the run, and never refreshed.
type Snapshot struct {
	TakenAt  time.Time
	Levels   []domain.Level
	Users    []domain.User
	Scores   []domain.Score
	Settings map[string]*domain.Settings // by user id; absent = user has none

	// Populated by BuildIndex
	LevelsByID map[string]*domain.Level
	UsersByID  map[string]*domain.User
	LevelIndex Index[*domain.Level] // every level, by canonical key
	UserIndex  Index[*domain.User]

	loaded LoadOptions
}

// LoadSnapshot reads the requested collections concurrently. Any read failure
// is fatal for the run and is returned wrapped in domain.ErrStoreUnavailable;
// a partial snapshot is never returned.
func LoadSnapshot(ctx context.Context, client Client, opts LoadOptions) (*Snapshot, error) {
	log := logging.FromContext(ctx)
	snap := &Snapshot{
		TakenAt:  time.Now().UTC(),
		Settings: make(map[string]*domain.Settings),
		loaded:   opts,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		levels, err := client.ListLevels(gctx)
		if err != nil {
			return fmt.Errorf("list levels: %w", err)
		}
		snap.Levels = levels
		return nil
	})
	if opts.Users || opts.Settings {
		g.Go(func() error {
			users, err := client.ListUsers(gctx)
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}
			snap.Users = users
			return nil
		})
	}
	if opts.Scores {
		g.Go(func() error {
			scores, err := client.ListScores(gctx)
			if err != nil {
				return fmt.Errorf("list scores: %w", err)
			}
			snap.Scores = scores
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	if opts.Settings {
		settings, err := loadSettings(ctx, client, snap.Users)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		snap.Settings = settings
	}

	log.Debug().
		Int("levels", len(snap.Levels)).
		Int("users", len(snap.Users)).
		Int("scores", len(snap.Scores)).
		Int("settings", len(snap.Settings)).
		Msg("Snapshot loaded")
	return snap, nil
}

func loadSettings(ctx context.Context, client Client, users []domain.User) (map[string]*domain.Settings, error) {
	found := make([]*domain.Settings, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(settingsFetchLimit)
	for i := range users {
		g.Go(func() error {
			s, err := client.GetSettings(gctx, users[i].ID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil
				}
				return fmt.Errorf("get settings for user %s: %w", users[i].ID, err)
			}
			found[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	settings := make(map[string]*domain.Settings, len(users))
	for i, s := range found {
		if s != nil {
			settings[users[i].ID] = s
		}
	}
	return settings, nil
}

// Loaded reports which collections the snapshot holds
func (s *Snapshot) Loaded() LoadOptions {
	return s.loaded
}

// BuildIndex derives the id maps and canonical-key groups. It is separate
// from loading so that a run can report the two stages independently.
func (s *Snapshot) BuildIndex() {
	s.LevelsByID = make(map[string]*domain.Level, len(s.Levels))
	levels := make([]*domain.Level, 0, len(s.Levels))
	for i := range s.Levels {
		l := &s.Levels[i]
		s.LevelsByID[l.ID] = l
		levels = append(levels, l)
	}
	s.LevelIndex = NewIndex(levels, keys.LevelKey)

	s.UsersByID = make(map[string]*domain.User, len(s.Users))
	users := make([]*domain.User, 0, len(s.Users))
	for i := range s.Users {
		u := &s.Users[i]
		s.UsersByID[u.ID] = u
		users = append(users, u)
	}
	s.UserIndex = NewIndex(users, keys.UserKey)
}

// Index groups records by canonical key
type Index[T any] map[string][]T

// NewIndex groups items by key. Group members keep input order.
func NewIndex[T any](items []T, key func(T) string) Index[T] {
	idx := make(Index[T])
	for _, item := range items {
		k := key(item)
		idx[k] = append(idx[k], item)
	}
	return idx
}

// Keys returns the index keys in sorted order
func (idx Index[T]) Keys() []string {
	out := make([]string, 0, len(idx))
	for k := range idx {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the records sharing key
func (idx Index[T]) Lookup(key string) []T {
	return idx[key]
}
