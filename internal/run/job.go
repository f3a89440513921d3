package run

import (
	"context"

	"github.com/lherron/levelsweep/internal/importer"
	"github.com/lherron/levelsweep/internal/sweep"
)

// Job is the run-specific part of a batch: what to load and how to turn a
// snapshot into detector results.
type Job interface {
	Name() string
	LoadOptions() sweep.LoadOptions
	// Detect may return results together with an error; the error is
	// reported and the results are still planned.
	Detect(ctx context.Context, snap *sweep.Snapshot) ([]sweep.Result, error)
}

// ImportJob imports a directory of level files
type ImportJob struct {
	Options importer.Options
}

func (j *ImportJob) Name() string { return "import" }

func (j *ImportJob) LoadOptions() sweep.LoadOptions { return sweep.LoadOptions{} }

func (j *ImportJob) Detect(ctx context.Context, snap *sweep.Snapshot) ([]sweep.Result, error) {
	opts := j.Options
	if opts.Now.IsZero() {
		opts.Now = snap.TakenAt
	}
	res, err := importer.Plan(ctx, snap, opts)
	return []sweep.Result{res}, err
}

// CleanupJob runs the enabled hygiene detectors
type CleanupJob struct {
	Detectors sweep.Detectors
}

func (j *CleanupJob) Name() string { return "cleanup" }

func (j *CleanupJob) LoadOptions() sweep.LoadOptions { return j.Detectors.LoadOptions() }

func (j *CleanupJob) Detect(ctx context.Context, snap *sweep.Snapshot) ([]sweep.Result, error) {
	return sweep.Detect(ctx, snap, j.Detectors), nil
}
