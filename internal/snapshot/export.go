package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/logging"
	"github.com/lherron/levelsweep/internal/sweep"
)

// Build reads every collection of the store into a snapshot. A read failure
// is returned wrapped in domain.ErrStoreUnavailable.
func Build(ctx context.Context, client sweep.Client) (*Snapshot, error) {
	st, err := sweep.LoadSnapshot(ctx, client, sweep.LoadOptions{Users: true, Scores: true, Settings: true})
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Meta: Meta{
			SchemaVersion: SchemaVersion,
			GeneratedAt:   domain.FormatTime(st.TakenAt),
		},
		Levels:   make(map[string]LevelEntry, len(st.Levels)),
		Users:    make(map[string]UserEntry, len(st.Users)),
		Scores:   make(map[string]ScoreEntry, len(st.Scores)),
		Settings: make(map[string]SettingsEntry, len(st.Settings)),
	}
	for _, l := range st.Levels {
		snap.Levels[l.ID] = LevelEntry{
			Title:        l.Title,
			AuthorID:     l.AuthorID,
			AuthorName:   l.AuthorName,
			Data:         string(l.Data),
			IsPublic:     l.IsPublic,
			CreatedAt:    storedTime(l.CreatedAt, l.Malformed, "created_at"),
			LastModified: storedTime(l.LastModified, l.Malformed, "last_modified"),
		}
	}
	for _, u := range st.Users {
		snap.Users[u.ID] = UserEntry{
			Username:    u.Username,
			DisplayName: u.DisplayName,
			Email:       u.Email,
			CreatedAt:   storedTime(u.CreatedAt, u.Malformed, "created_at"),
		}
	}
	for _, s := range st.Scores {
		snap.Scores[s.ID] = ScoreEntry{
			LevelID:   s.LevelID,
			UserID:    s.UserID,
			Strokes:   s.Strokes,
			CreatedAt: domain.FormatTime(s.CreatedAt),
		}
	}
	for userID, s := range st.Settings {
		snap.Settings[userID] = SettingsEntry{
			Data:      string(s.Data),
			UpdatedAt: storedTime(s.UpdatedAt, s.Malformed, "updated_at"),
		}
	}
	return snap, nil
}

// storedTime renders t, or the raw stored value when the column was unreadable
func storedTime(t time.Time, malformed domain.Malformed, field string) string {
	if raw, ok := malformed[field]; ok {
		return raw
	}
	return domain.FormatTime(t)
}

// Encode stamps s with its snapshot_rev and returns the canonical bytes
func Encode(s *Snapshot) ([]byte, error) {
	rev, err := ComputeSnapshotRev(s)
	if err != nil {
		return nil, err
	}
	s.Meta.SnapshotRev = rev
	return CanonicalJSON(s)
}

// Export reads the store and writes a canonical snapshot to outputPath
func Export(ctx context.Context, client sweep.Client, outputPath string) (*ExportResult, error) {
	if outputPath == "" {
		outputPath = DefaultOutputPath
	}

	snap, err := Build(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot: %w", err)
	}
	data, err := Encode(snap)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}

	logging.FromContext(ctx).Info().
		Str("file", outputPath).
		Str("snapshot_rev", snap.Meta.SnapshotRev).
		Msg("Snapshot written")

	return &ExportResult{
		OutputPath:  outputPath,
		SnapshotRev: snap.Meta.SnapshotRev,
		Levels:      len(snap.Levels),
		Users:       len(snap.Users),
		Scores:      len(snap.Scores),
		Settings:    len(snap.Settings),
	}, nil
}
