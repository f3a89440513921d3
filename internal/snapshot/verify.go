package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/lherron/levelsweep/internal/sweep"
)

// Load reads and parses a snapshot file
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if snap.Meta.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported snapshot schema version %d (want %d)", snap.Meta.SchemaVersion, SchemaVersion)
	}
	return &snap, nil
}

// Verify checks that the snapshot at inputPath still matches its own
// snapshot_rev. When client is non-nil the snapshot is also compared with
// the live store, and any drift is reported with the first difference.
func Verify(ctx context.Context, inputPath string, client sweep.Client) (*VerifyResult, error) {
	snap, err := Load(inputPath)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{InputPath: inputPath, SnapshotRev: snap.Meta.SnapshotRev}
	rev, err := ComputeSnapshotRev(snap)
	if err != nil {
		return nil, err
	}
	if rev != snap.Meta.SnapshotRev {
		result.Message = fmt.Sprintf("content does not match snapshot_rev (computed %s)", rev)
		return result, nil
	}

	if client == nil {
		result.Valid = true
		result.Message = "snapshot is intact"
		return result, nil
	}

	live, err := Build(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	liveRev, err := ComputeSnapshotRev(live)
	if err != nil {
		return nil, err
	}
	if liveRev != rev {
		a, _ := canonicalContent(snap)
		b, _ := canonicalContent(live)
		result.Message = fmt.Sprintf("store has changed since the snapshot: %s", findFirstDiff(a, b))
		return result, nil
	}

	result.Valid = true
	result.Message = "snapshot matches the store"
	return result, nil
}

func canonicalContent(s *Snapshot) (string, error) {
	content := *s
	content.Meta = Meta{SchemaVersion: s.Meta.SchemaVersion}
	data, err := CanonicalJSON(&content)
	return string(data), err
}

func findFirstDiff(a, b string) string {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	for i := 0; i < minLen; i++ {
		if a[i] != b[i] {
			start := i - 20
			if start < 0 {
				start = 0
			}
			end := i + 20
			if end > minLen {
				end = minLen
			}
			return fmt.Sprintf("difference at byte %d: ...%s... vs ...%s...",
				i, strings.ReplaceAll(a[start:end], "\n", "\\n"),
				strings.ReplaceAll(b[start:end], "\n", "\\n"))
		}
	}

	if len(a) != len(b) {
		return fmt.Sprintf("length mismatch: %d vs %d", len(a), len(b))
	}
	return "no difference"
}
