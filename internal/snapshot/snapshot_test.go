package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/sweep"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func seededClient() *sweep.MemClient {
	c := sweep.NewMemClient()
	c.Seed(
		[]domain.Level{
			{ID: "L2", Title: "<Loop>", AuthorID: "U1", Data: json.RawMessage(`{"holes":[]}`), IsPublic: domain.BoolPtr(true), CreatedAt: t0},
			{ID: "L1", Title: "Ramp", AuthorID: "U1", Data: json.RawMessage(`{not json`)},
		},
		[]domain.User{{ID: "U1", Username: "alice", CreatedAt: t0}},
		[]domain.Score{{ID: "S1", LevelID: "L1", UserID: "U1", Strokes: 3}},
		[]domain.Settings{{UserID: "U1", Data: json.RawMessage(`{}`)}},
	)
	return c
}

func TestCanonicalJSON(t *testing.T) {
	snap := &Snapshot{
		Meta:   Meta{SchemaVersion: 1},
		Levels: map[string]LevelEntry{"L1": {Title: "<Loop>", AuthorID: "U1"}},
		Users:  map[string]UserEntry{"U1": {Username: "alice"}},
	}
	data, err := CanonicalJSON(snap)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"levels":{"L1":{"author_id":"U1","title":"<Loop>"}},"meta":{"schema_version":1},"users":{"U1":{"username":"alice"}}}`
	if string(data) != want {
		t.Errorf("got  %s\nwant %s", data, want)
	}
}

func TestBuildKeepsUnreadableTimestamps(t *testing.T) {
	c := sweep.NewMemClient()
	c.Seed(
		[]domain.Level{{ID: "L1", Title: "Ramp", LastModified: t0, Malformed: domain.Malformed{"created_at": "2024-03-01 12:00:00"}}},
		[]domain.User{{ID: "U1", Username: "alice", Malformed: domain.Malformed{"created_at": "yesterday"}}},
		nil, nil,
	)

	snap, err := Build(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	if got := snap.Levels["L1"].CreatedAt; got != "2024-03-01 12:00:00" {
		t.Errorf("level created_at = %q", got)
	}
	if got := snap.Levels["L1"].LastModified; got != domain.FormatTime(t0) {
		t.Errorf("level last_modified = %q", got)
	}
	if got := snap.Users["U1"].CreatedAt; got != "yesterday" {
		t.Errorf("user created_at = %q", got)
	}
}

func TestSnapshotRevIgnoresMeta(t *testing.T) {
	ctx := context.Background()
	c := seededClient()

	a, err := Build(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Build(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	b.Meta.GeneratedAt = "2030-01-01T00:00:00Z"

	revA, _ := ComputeSnapshotRev(a)
	revB, _ := ComputeSnapshotRev(b)
	if revA != revB {
		t.Errorf("revs differ for the same store: %s vs %s", revA, revB)
	}
	if !strings.HasPrefix(revA, "sha256:") {
		t.Errorf("rev = %s", revA)
	}

	delete(b.Scores, "S1")
	revC, _ := ComputeSnapshotRev(b)
	if revC == revA {
		t.Error("rev should change with content")
	}
}

func TestExportAndVerify(t *testing.T) {
	ctx := context.Background()
	c := seededClient()
	path := filepath.Join(t.TempDir(), "nested", "snapshot.json")

	result, err := Export(ctx, c, path)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if result.Levels != 2 || result.Users != 1 || result.Scores != 1 || result.Settings != 1 {
		t.Errorf("counts = %+v", result)
	}
	if c.Mutations != 0 {
		t.Errorf("export mutated the store %d times", c.Mutations)
	}

	snap, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Levels["L1"].Data != `{not json` {
		t.Errorf("malformed data not preserved: %q", snap.Levels["L1"].Data)
	}
	if snap.Levels["L1"].IsPublic != nil {
		t.Error("unset visibility should stay unset")
	}

	v, err := Verify(ctx, path, nil)
	if err != nil || !v.Valid {
		t.Fatalf("Verify(file) = %+v, %v", v, err)
	}
	v, err = Verify(ctx, path, c)
	if err != nil || !v.Valid {
		t.Fatalf("Verify(store) = %+v, %v", v, err)
	}

	if err := c.DeleteScore(ctx, "S1"); err != nil {
		t.Fatal(err)
	}
	v, err = Verify(ctx, path, c)
	if err != nil {
		t.Fatal(err)
	}
	if v.Valid || !strings.Contains(v.Message, "store has changed") {
		t.Errorf("expected drift, got %+v", v)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if _, err := Export(ctx, seededClient(), path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	tampered := strings.Replace(string(data), `"username":"alice"`, `"username":"mallory"`, 1)
	if err := os.WriteFile(path, []byte(tampered), 0644); err != nil {
		t.Fatal(err)
	}

	v, err := Verify(ctx, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.Valid {
		t.Error("tampered snapshot should not verify")
	}
}

func TestLoadRejectsUnknownSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte(`{"meta":{"schema_version":99}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected schema version error")
	}
}

func TestFindFirstDiff(t *testing.T) {
	tests := []struct {
		a, b, want string
	}{
		{"abc", "abc", "no difference"},
		{"abc", "abd", "difference at byte 2"},
		{"abc", "abcd", "length mismatch: 3 vs 4"},
	}
	for _, tt := range tests {
		if got := findFirstDiff(tt.a, tt.b); !strings.Contains(got, tt.want) {
			t.Errorf("findFirstDiff(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
		}
	}
}
