package sweep

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/lherron/levelsweep/internal/domain"
)

// MemClient is an in-memory Client. It backs tests and dry-run previews and
// counts every mutating call so callers can assert store purity.
type MemClient struct {
	mu       sync.Mutex
	levels   map[string]domain.Level
	users    map[string]domain.User
	scores   map[string]domain.Score
	settings map[string]domain.Settings

	// Mutations counts create/update/delete/set calls, successful or not.
	Mutations int

	// Fail, when set, is consulted before every call. A non-nil return
	// fails the call with that error.
	Fail func(op, id string) error
}

// NewMemClient returns an empty in-memory store
func NewMemClient() *MemClient {
	return &MemClient{
		levels:   make(map[string]domain.Level),
		users:    make(map[string]domain.User),
		scores:   make(map[string]domain.Score),
		settings: make(map[string]domain.Settings),
	}
}

// Seed inserts records verbatim, keeping their ids. It is not counted as a
// mutation.
func (m *MemClient) Seed(levels []domain.Level, users []domain.User, scores []domain.Score, settings []domain.Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range levels {
		m.levels[l.ID] = l
	}
	for _, u := range users {
		m.users[u.ID] = u
	}
	for _, s := range scores {
		m.scores[s.ID] = s
	}
	for _, s := range settings {
		m.settings[s.UserID] = s
	}
}

// Level returns a stored level by id
func (m *MemClient) Level(id string) (domain.Level, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.levels[id]
	return l, ok
}

// Counts returns the number of stored levels, users, scores and settings
func (m *MemClient) Counts() (levels, users, scores, settings int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.levels), len(m.users), len(m.scores), len(m.settings)
}

func (m *MemClient) check(op, id string) error {
	if m.Fail == nil {
		return nil
	}
	return m.Fail(op, id)
}

func (m *MemClient) ListLevels(ctx context.Context) ([]domain.Level, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("ListLevels", ""); err != nil {
		return nil, err
	}
	out := make([]domain.Level, 0, len(m.levels))
	for _, l := range m.levels {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemClient) CreateLevel(ctx context.Context, level domain.Level) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Mutations++
	if err := m.check("CreateLevel", level.Title); err != nil {
		return "", err
	}
	level.ID = uuid.New().String()
	level.Data = append(json.RawMessage(nil), level.Data...)
	m.levels[level.ID] = level
	return level.ID, nil
}

func (m *MemClient) UpdateLevel(ctx context.Context, id string, patch domain.LevelPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Mutations++
	if err := m.check("UpdateLevel", id); err != nil {
		return err
	}
	l, ok := m.levels[id]
	if !ok {
		return &domain.NotFoundError{Entity: domain.EntityLevel, ID: id}
	}
	m.levels[id] = patch.Apply(l)
	return nil
}

func (m *MemClient) DeleteLevel(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Mutations++
	if err := m.check("DeleteLevel", id); err != nil {
		return err
	}
	if _, ok := m.levels[id]; !ok {
		return &domain.NotFoundError{Entity: domain.EntityLevel, ID: id}
	}
	delete(m.levels, id)
	return nil
}

func (m *MemClient) ListUsers(ctx context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("ListUsers", ""); err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemClient) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Mutations++
	if err := m.check("UpdateUser", id); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return &domain.NotFoundError{Entity: domain.EntityUser, ID: id}
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.DisplayName != nil {
		u.DisplayName = *patch.DisplayName
	}
	m.users[id] = u
	return nil
}

func (m *MemClient) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Mutations++
	if err := m.check("DeleteUser", id); err != nil {
		return err
	}
	if _, ok := m.users[id]; !ok {
		return &domain.NotFoundError{Entity: domain.EntityUser, ID: id}
	}
	delete(m.users, id)
	delete(m.settings, id)
	return nil
}

func (m *MemClient) ListScores(ctx context.Context) ([]domain.Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("ListScores", ""); err != nil {
		return nil, err
	}
	out := make([]domain.Score, 0, len(m.scores))
	for _, s := range m.scores {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemClient) DeleteScore(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Mutations++
	if err := m.check("DeleteScore", id); err != nil {
		return err
	}
	if _, ok := m.scores[id]; !ok {
		return &domain.NotFoundError{Entity: domain.EntityScore, ID: id}
	}
	delete(m.scores, id)
	return nil
}

func (m *MemClient) GetBestScore(ctx context.Context, userID, levelID string) (*domain.Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("GetBestScore", userID); err != nil {
		return nil, err
	}
	var best *domain.Score
	for _, s := range m.scores {
		if s.UserID != userID || s.LevelID != levelID {
			continue
		}
		if best == nil || s.Strokes < best.Strokes || (s.Strokes == best.Strokes && Earlier(s.CreatedAt, s.ID, best.CreatedAt, best.ID)) {
			s := s
			best = &s
		}
	}
	if best == nil {
		return nil, &domain.NotFoundError{Entity: domain.EntityScore, ID: userID + "/" + levelID}
	}
	return best, nil
}

func (m *MemClient) GetSettings(ctx context.Context, userID string) (*domain.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("GetSettings", userID); err != nil {
		return nil, err
	}
	s, ok := m.settings[userID]
	if !ok {
		return nil, &domain.NotFoundError{Entity: domain.EntitySettings, ID: userID}
	}
	return &s, nil
}

func (m *MemClient) SetSettings(ctx context.Context, settings domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Mutations++
	if err := m.check("SetSettings", settings.UserID); err != nil {
		return err
	}
	if settings.UserID == "" {
		return fmt.Errorf("settings: user id is required")
	}
	m.settings[settings.UserID] = settings
	return nil
}
