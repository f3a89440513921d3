package sweep

import (
	"context"
)

// Detectors selects the cleanup stages for a run. Every switch is
// independent; a stage runs only when its switch is on.
type Detectors struct {
	DuplicateLevels bool
	DuplicateUsers  bool
	OrphanedLevels  bool
	FixInvalidData  bool
	TestData        bool

	Markers TestMarkers
	Orphans OrphanOptions
}

// LoadOptions returns the collections the enabled stages need
func (d Detectors) LoadOptions() LoadOptions {
	return LoadOptions{
		Users:    d.DuplicateUsers || d.OrphanedLevels || d.FixInvalidData || d.TestData,
		Scores:   d.OrphanedLevels || d.TestData,
		Settings: d.FixInvalidData,
	}
}

// Detect runs the enabled stages in plan order: duplicates, orphans, test
// data, then fixes. Stages run sequentially so logs are deterministic.
func Detect(ctx context.Context, snap *Snapshot, d Detectors) []Result {
	var results []Result
	if d.DuplicateLevels {
		res, _ := FindDuplicateLevels(ctx, snap)
		results = append(results, res)
	}
	if d.DuplicateUsers {
		res, _ := FindDuplicateUsers(ctx, snap)
		results = append(results, res)
	}
	if d.OrphanedLevels {
		results = append(results, FindOrphans(ctx, snap, d.Orphans))
	}
	if d.TestData {
		results = append(results, FindTestData(ctx, snap, d.Markers))
	}
	if d.FixInvalidData {
		results = append(results,
			ValidateLevels(ctx, snap),
			ValidateUsers(ctx, snap),
			ValidateSettings(ctx, snap),
		)
	}
	return results
}
