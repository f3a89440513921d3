// Package run drives one import or cleanup batch through its states:
//
//	idle → loading → indexing → detecting → planning →
//	  (dry-run-report | executing) → reporting → done
//
// Only the snapshot stages can fail a run. Later stages record per-item
// errors in the report and always reach done. A panic anywhere is caught at
// the run boundary and turned into a *FatalError.
package run

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/lherron/levelsweep/internal/bulk"
	"github.com/lherron/levelsweep/internal/events"
	"github.com/lherron/levelsweep/internal/logging"
	"github.com/lherron/levelsweep/internal/sweep"
)

// Runner executes jobs against a store client. A Runner is single-use.
type Runner struct {
	Client       sweep.Client
	DryRun       bool
	ShowProgress bool

	id      string
	state   State
	history []State
}

// New creates a runner in the idle state
func New(client sweep.Client, dryRun bool) *Runner {
	return &Runner{
		Client:  client,
		DryRun:  dryRun,
		id:      uuid.New().String(),
		state:   StateIdle,
		history: []State{StateIdle},
	}
}

// ID returns the run id carried in every log line
func (r *Runner) ID() string { return r.id }

// State returns the current state
func (r *Runner) State() State { return r.state }

// History returns every state the run has entered, in order
func (r *Runner) History() []State {
	return append([]State(nil), r.history...)
}

func (r *Runner) enter(ctx context.Context, to State) {
	if !CanTransition(r.state, to) {
		panic(fmt.Sprintf("illegal transition %s -> %s", r.state, to))
	}
	r.state = to
	r.history = append(r.history, to)
	logging.FromContext(ctx).Debug().Str("state", string(to)).Msg("Run state")
}

func (r *Runner) fail(ctx context.Context, err error) *FatalError {
	fatal := &FatalError{State: r.state, Err: err}
	r.state = StateFailed
	r.history = append(r.history, StateFailed)
	logging.FromContext(ctx).Error().Str("state", string(fatal.State)).Err(err).Msg("Run failed")
	return fatal
}

// Run executes job. It returns a report, or a *FatalError when the store
// could not be read or the run panicked. No mutation is attempted after a
// fatal error.
func (r *Runner) Run(ctx context.Context, job Job) (report *bulk.Report, err error) {
	if r.state != StateIdle {
		return nil, fmt.Errorf("runner already used (state %s)", r.state)
	}
	ctx = events.WithRunID(ctx, r.id)
	ctx = logging.WithFields(ctx, "run_id", r.id, "job", job.Name())
	log := logging.FromContext(ctx)

	defer func() {
		if p := recover(); p != nil {
			log.Debug().Str("stack", string(debug.Stack())).Msg("Recovered panic")
			report = nil
			err = r.fail(ctx, fmt.Errorf("panic: %v", p))
		}
	}()

	log.Info().Bool("dry_run", r.DryRun).Msg("Run started")

	r.enter(ctx, StateLoading)
	snap, err := sweep.LoadSnapshot(ctx, r.Client, job.LoadOptions())
	if err != nil {
		return nil, r.fail(ctx, err)
	}

	r.enter(ctx, StateIndexing)
	snap.BuildIndex()

	r.enter(ctx, StateDetecting)
	results, detectErr := job.Detect(ctx, snap)
	if detectErr != nil {
		log.Error().Err(detectErr).Msg("Detection incomplete")
	}

	r.enter(ctx, StatePlanning)
	plan := sweep.BuildPlan(results...)
	counts := plan.Counts()
	log.Info().
		Int("deletes", counts[sweep.KindDelete]).
		Int("updates", counts[sweep.KindUpdate]).
		Int("creates", counts[sweep.KindCreate]).
		Int("errors", len(plan.Errors)).
		Msg("Plan ready")

	if r.DryRun {
		r.enter(ctx, StateDryRunReport)
	} else {
		r.enter(ctx, StateExecuting)
	}
	exec := &bulk.Executor{Client: r.Client, DryRun: r.DryRun, ShowProgress: r.ShowProgress}
	report = exec.Execute(ctx, plan)

	r.enter(ctx, StateReporting)
	if detectErr != nil {
		report.AddError(job.Name(), detectErr.Error())
	}
	log.Info().
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("fixed", report.Fixed).
		Int("removed", report.Removed).
		Int("skipped", report.Skipped).
		Int("flagged", report.Flagged).
		Int("errors", len(report.Errors)).
		Msg("Run finished")

	r.enter(ctx, StateDone)
	return report, nil
}
