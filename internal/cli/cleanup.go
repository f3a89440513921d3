package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lherron/levelsweep/internal/cli/appctx"
	"github.com/lherron/levelsweep/internal/config"
	"github.com/lherron/levelsweep/internal/run"
	"github.com/lherron/levelsweep/internal/snapshot"
)

func newCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove duplicate, orphaned and test records and fix invalid data",
		Long: `Cleanup loads the store, plans every selected step and applies the plan.

Steps run in this order: duplicate levels, duplicate users, orphans, test
data, fixes. A record is touched at most once. Levels whose author no longer
exists are reported as warnings, never deleted.

At least one step must be selected. With --snapshot, every record is
exported to FILE before a live run writes anything.`,
		Example: `  levelsweep cleanup --remove-duplicate-levels --remove-orphaned-levels --dry-run
  levelsweep cleanup --fix-invalid-data --snapshot backups/before-fix.json
  levelsweep cleanup --options cleanup.yaml --output json`,
		Args: cobra.NoArgs,
		RunE: appctx.WithApp(appctx.DefaultOptions(), runCleanup),
	}

	cmd.Flags().Bool("remove-duplicate-levels", false, "Delete all but the oldest public level per title and author")
	cmd.Flags().Bool("remove-duplicate-users", false, "Delete all but the oldest user per email or username")
	cmd.Flags().Bool("remove-orphaned-levels", false, "Delete scores that point at missing records and flag authorless levels")
	cmd.Flags().Bool("fix-invalid-data", false, "Repair missing fields on levels, users and settings")
	cmd.Flags().Bool("remove-test-data", false, "Delete records matching the configured test markers")
	cmd.Flags().Bool("dry-run", false, "Show the plan without writing")
	cmd.Flags().String("snapshot", "", "Export a snapshot to this file before a live run")
	return cmd
}

func runCleanup(app *appctx.App, cmd *cobra.Command, args []string) error {
	var o config.CleanupOptions
	if err := readOptions(cmd, &o); err != nil {
		return err
	}
	overrideBool(cmd, "remove-duplicate-levels", &o.RemoveDuplicateLevels)
	overrideBool(cmd, "remove-duplicate-users", &o.RemoveDuplicateUsers)
	overrideBool(cmd, "remove-orphaned-levels", &o.RemoveOrphanedLevels)
	overrideBool(cmd, "fix-invalid-data", &o.FixInvalidData)
	overrideBool(cmd, "remove-test-data", &o.RemoveTestData)
	overrideBool(cmd, "dry-run", &o.DryRun)

	opts, err := config.NewCleanupOptions(o)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("snapshot"); path != "" {
		if opts.DryRun {
			app.Logger.Info().Str("file", path).Msg("Dry run, no snapshot taken")
		} else if _, err := snapshot.Export(app.Context(cmd.Context()), app.Client, path); err != nil {
			return fmt.Errorf("snapshot before cleanup: %w", err)
		}
	}
	return runJob(app, cmd, &run.CleanupJob{Detectors: opts.Detectors(app.Config)}, opts.DryRun)
}
