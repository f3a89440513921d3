package cli

import (
	"github.com/spf13/cobra"

	"github.com/lherron/levelsweep/internal/cli/appctx"
	"github.com/lherron/levelsweep/internal/config"
	"github.com/lherron/levelsweep/internal/render"
	"github.com/lherron/levelsweep/internal/run"
)

// readOptions loads --options into target when the flag is set
func readOptions(cmd *cobra.Command, target interface{}) error {
	f := cmd.Flag("options")
	if f == nil || f.Value.String() == "" {
		return nil
	}
	return config.ReadOptionsFile(f.Value.String(), target)
}

// overrideBool copies a bool flag onto dst when the user set it
func overrideBool(cmd *cobra.Command, name string, dst *bool) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetBool(name)
	}
}

// overrideString copies a string flag onto dst when the user set it
func overrideString(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}

// runJob executes job, prints the report and maps report errors to
// ErrRunFailed
func runJob(app *appctx.App, cmd *cobra.Command, job run.Job, dryRun bool) error {
	ctx := app.Context(cmd.Context())

	r := run.New(app.Client, dryRun)
	r.ShowProgress = app.Renderer.Format() == render.FormatTable
	report, err := r.Run(ctx, job)
	if err != nil {
		states := make([]string, 0, len(r.History()))
		for _, st := range r.History() {
			states = append(states, string(st))
		}
		app.Logger.Debug().Str("run_id", r.ID()).Strs("states", states).Msg("Run aborted")
		return err
	}

	if err := app.Renderer.Render(report, report.PrintSummary); err != nil {
		return err
	}
	if report.ExitCode() != 0 {
		return ErrRunFailed
	}
	return nil
}
