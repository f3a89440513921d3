// Package bulk applies a sweep.Plan to a store and aggregates the outcome.
package bulk

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/logging"
	"github.com/lherron/levelsweep/internal/sweep"
)

// Executor runs plan actions against a store client
type Executor struct {
	Client       sweep.Client
	DryRun       bool
	ShowProgress bool
	Progress     io.Writer // progress line target; defaults to stderr
}

// Execute applies every action in plan order. Under DryRun nothing is sent
// to the client; each action is logged and counted as planned. In live mode
// a failed action is recorded and execution continues with the next one.
func (e *Executor) Execute(ctx context.Context, plan *sweep.Plan) *Report {
	log := logging.FromContext(ctx)
	report := NewReport(plan, e.DryRun)

	progress := e.progressWriter()
	total := len(plan.Actions)
	for i := range plan.Actions {
		a := &plan.Actions[i]
		if progress != nil {
			fmt.Fprintf(progress, "\rApplying %d/%d... [%s]", i+1, total, progressBar((i+1)*100/total, 20))
		}

		outcome := newOutcome(a)
		if e.DryRun {
			outcome.Status = StatusPlanned
			outcome.Diff = levelDiff(a)
			ev := log.Info().Str("action", a.Context()).Str("reason", string(a.Reason))
			if a.Detail != "" {
				ev = ev.Str("detail", a.Detail)
			}
			ev.Msg("Dry run: would apply")
			if outcome.Diff != "" {
				log.Debug().Str("action", a.Context()).Msg("Dry run diff:\n" + outcome.Diff)
			}
			report.record(a, outcome)
			continue
		}

		id, err := e.apply(ctx, a)
		if err != nil {
			aerr := &domain.ActionError{Context: a.Context(), Err: err}
			outcome.Status = StatusFailed
			outcome.Error = err.Error()
			report.AddError(aerr.Context, aerr.Err.Error())
			log.Error().Err(aerr).Msg("Action failed")
			report.Actions = append(report.Actions, outcome)
			continue
		}
		if id != "" {
			outcome.TargetID = id
		}
		outcome.Status = StatusApplied
		log.Info().Str("action", outcome.context()).Str("reason", string(a.Reason)).Msg("Applied")
		report.record(a, outcome)
	}

	if progress != nil {
		fmt.Fprint(progress, "\r\033[K")
	}
	return report
}

// apply performs one action. It returns the store-assigned id for creates.
func (e *Executor) apply(ctx context.Context, a *sweep.Action) (string, error) {
	switch a.Kind {
	case sweep.KindCreate:
		switch {
		case a.Entity == domain.EntityLevel && a.Level != nil:
			return e.Client.CreateLevel(ctx, *a.Level)
		case a.Entity == domain.EntitySettings && a.Settings != nil:
			return "", e.Client.SetSettings(ctx, *a.Settings)
		}
	case sweep.KindUpdate:
		switch {
		case a.Entity == domain.EntityLevel && a.LevelPatch != nil:
			return "", e.Client.UpdateLevel(ctx, a.TargetID, *a.LevelPatch)
		case a.Entity == domain.EntityUser && a.UserPatch != nil:
			return "", e.Client.UpdateUser(ctx, a.TargetID, *a.UserPatch)
		}
	case sweep.KindDelete:
		switch a.Entity {
		case domain.EntityLevel:
			return "", e.Client.DeleteLevel(ctx, a.TargetID)
		case domain.EntityUser:
			return "", e.Client.DeleteUser(ctx, a.TargetID)
		case domain.EntityScore:
			return "", e.Client.DeleteScore(ctx, a.TargetID)
		}
	}
	return "", fmt.Errorf("unsupported action: %s", a.Context())
}

func (e *Executor) progressWriter() io.Writer {
	if !e.ShowProgress {
		return nil
	}
	if e.Progress != nil {
		return e.Progress
	}
	if isatty.IsTerminal(os.Stderr.Fd()) {
		return os.Stderr
	}
	return nil
}

// progressBar creates a simple progress bar
func progressBar(percent, width int) string {
	filled := percent * width / 100
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
