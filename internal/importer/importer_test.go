package importer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lherron/levelsweep/internal/bulk"
	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/sweep"
)

var runStart = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func snapshot(t *testing.T, c sweep.Client) *sweep.Snapshot {
	t.Helper()
	snap, err := sweep.LoadSnapshot(context.Background(), c, sweep.LoadOptions{})
	require.NoError(t, err)
	snap.BuildIndex()
	return snap
}

// runImport plans against a fresh snapshot and executes live
func runImport(t *testing.T, c sweep.Client, opts Options) *bulk.Report {
	t.Helper()
	ctx := context.Background()
	res, err := Plan(ctx, snapshot(t, c), opts)
	require.NoError(t, err)
	return (&bulk.Executor{Client: c}).Execute(ctx, sweep.BuildPlan(res))
}

func TestPlanCaseInsensitiveBatchDuplicate(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.json": `{"title":"Hole One","holes":[{"par":3}]}`,
		"A.JSON": `{"title":"hole one","holes":[{"par":4}]}`,
	})
	c := sweep.NewMemClient()

	report := runImport(t, c, Options{Dir: dir, AuthorID: "system", Now: runStart})

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, report.Errors)
	levels, _, _, _ := c.Counts()
	assert.Equal(t, 1, levels)
}

func TestPlanIdempotent(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"one.json":   `{"title":"Windmill"}`,
		"two.json":   `{"course":{"title":"Castle","holes":[]}}`,
		"three.json": `{"holes":[]}`,
	})
	c := sweep.NewMemClient()

	first := runImport(t, c, Options{Dir: dir, Now: runStart})
	require.Equal(t, 3, first.Created)

	second := runImport(t, c, Options{Dir: dir, Now: runStart.Add(time.Hour)})
	assert.Zero(t, second.Created)
	assert.Zero(t, second.Updated)
	assert.Equal(t, 3, second.Skipped)
	assert.Empty(t, second.Errors)
}

func TestPlanCreatePayload(t *testing.T) {
	dir := writeFiles(t, map[string]string{"loop.json": `{ "holes": [ {"par": 3} ] }`})
	c := sweep.NewMemClient()

	res, err := Plan(context.Background(), snapshot(t, c), Options{Dir: dir, Now: runStart})
	require.NoError(t, err)
	require.Len(t, res.Actions, 1)

	a := res.Actions[0]
	assert.Equal(t, sweep.KindCreate, a.Kind)
	assert.Equal(t, sweep.ReasonImport, a.Reason)
	require.NotNil(t, a.Level)
	assert.Equal(t, "loop", a.Level.Title)
	assert.Equal(t, DefaultAuthorID, a.Level.AuthorID)
	assert.Equal(t, DefaultAuthorName, a.Level.AuthorName)
	assert.True(t, a.Level.Public())
	assert.Equal(t, runStart, a.Level.CreatedAt)
	assert.Equal(t, runStart, a.Level.LastModified)
	assert.JSONEq(t, `{"holes":[{"par":3}]}`, string(a.Level.Data))
}

func TestPlanOverwriteScopesFields(t *testing.T) {
	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	modified := created.Add(24 * time.Hour)
	c := sweep.NewMemClient()
	c.Seed([]domain.Level{
		{ID: "L1", Title: "Windmill", AuthorID: "system", AuthorName: "Old", Data: json.RawMessage(`{"holes":[]}`),
			IsPublic: domain.BoolPtr(false), CreatedAt: created, LastModified: modified},
		{ID: "L0", Title: "windmill", AuthorID: "system", AuthorName: "Older", Data: json.RawMessage(`{}`),
			IsPublic: domain.BoolPtr(true), CreatedAt: created.Add(-time.Hour)},
	}, nil, nil, nil)
	dir := writeFiles(t, map[string]string{"w.json": `{"title":"WINDMILL","holes":[{"par":2}]}`})

	report := runImport(t, c, Options{Dir: dir, Overwrite: true, AuthorName: "Importer", Now: runStart})
	require.Equal(t, 1, report.Updated)
	require.Zero(t, report.Created)

	survivor, ok := c.Level("L0")
	require.True(t, ok)
	assert.Equal(t, "L0", survivor.ID)
	assert.Equal(t, created.Add(-time.Hour), survivor.CreatedAt)
	assert.Equal(t, "WINDMILL", survivor.Title)
	assert.Equal(t, "Importer", survivor.AuthorName)
	assert.True(t, survivor.Public())
	assert.JSONEq(t, `{"holes":[{"par":2}]}`, string(survivor.Data))
	assert.Equal(t, "system", survivor.AuthorID)

	untouched, _ := c.Level("L1")
	assert.Equal(t, "Old", untouched.AuthorName)
	assert.Equal(t, modified, untouched.LastModified)
}

func TestPlanOverwriteUnchangedIsSkipped(t *testing.T) {
	c := sweep.NewMemClient()
	c.Seed([]domain.Level{{ID: "L1", Title: "Windmill", AuthorID: "system", AuthorName: "System",
		Data: json.RawMessage(`{"holes": []}`), IsPublic: domain.BoolPtr(true), CreatedAt: runStart}}, nil, nil, nil)
	dir := writeFiles(t, map[string]string{"Windmill.json": `{"holes":[]}`})

	res, err := Plan(context.Background(), snapshot(t, c), Options{Dir: dir, Overwrite: true, Now: runStart})
	require.NoError(t, err)
	assert.Empty(t, res.Actions)
	require.Len(t, res.Skipped, 1)
	assert.Contains(t, res.Skipped[0].Message, "up to date")
}

func TestPlanPerFileErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"broken.json": `{"title":`,
		"empty.json":  ``,
		"good.json":   `{"title":"Good"}`,
		"notes.txt":   `not a level`,
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0755))
	c := sweep.NewMemClient()

	report := runImport(t, c, Options{Dir: dir, Now: runStart})

	assert.Equal(t, 1, report.Created)
	require.Len(t, report.Errors, 2)
	assert.Contains(t, report.Errors[0].Context, "broken.json")
	assert.Contains(t, report.Errors[1].Context, "empty.json")
	assert.Equal(t, 1, report.ExitCode())
}

func TestPlanMissingDir(t *testing.T) {
	_, err := Plan(context.Background(), snapshot(t, sweep.NewMemClient()), Options{Dir: filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
}

func TestPlanDryRunPurity(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.json": `{"title":"A"}`, "b.json": `{"title":"B"}`})
	c := sweep.NewMemClient()
	ctx := context.Background()

	res, err := Plan(ctx, snapshot(t, c), Options{Dir: dir, Now: runStart})
	require.NoError(t, err)
	report := (&bulk.Executor{Client: c, DryRun: true}).Execute(ctx, sweep.BuildPlan(res))

	assert.Equal(t, 2, report.Created)
	assert.Zero(t, c.Mutations)
}

func TestListFilesOrder(t *testing.T) {
	dir := writeFiles(t, map[string]string{"b.json": "{}", "a.JSON": "{}", "c.yaml": ""})
	files, err := ListFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.JSON", filepath.Base(files[0]))
	assert.Equal(t, "b.json", filepath.Base(files[1]))
}
