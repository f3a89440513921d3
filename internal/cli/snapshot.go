package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lherron/levelsweep/internal/cli/appctx"
	"github.com/lherron/levelsweep/internal/snapshot"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Back up the record store as canonical JSON",
		Long: `Snapshot commands write and check canonical JSON backups of the store.

Take a snapshot before a live cleanup; verify it later to see whether the
store has changed since.`,
	}

	export := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot of every record",
		Args:  cobra.NoArgs,
		RunE:  appctx.WithApp(appctx.DefaultOptions(), runSnapshotExport),
	}
	export.Flags().String("out", snapshot.DefaultOutputPath, "Snapshot file to write")

	verify := &cobra.Command{
		Use:   "verify",
		Short: "Check a snapshot's integrity, optionally against the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			against, _ := cmd.Flags().GetBool("against-store")
			return appctx.WithApp(appctx.Options{NeedsClient: against}, runSnapshotVerify)(cmd, args)
		},
	}
	verify.Flags().String("in", snapshot.DefaultOutputPath, "Snapshot file to check")
	verify.Flags().Bool("against-store", false, "Also compare the snapshot with the live store")

	cmd.AddCommand(export, verify)
	return cmd
}

func runSnapshotExport(app *appctx.App, cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")

	result, err := snapshot.Export(app.Context(cmd.Context()), app.Client, out)
	if err != nil {
		return err
	}
	return app.Renderer.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Wrote %s\n", result.OutputPath)
		fmt.Fprintf(w, "  levels %d, users %d, scores %d, settings %d\n", result.Levels, result.Users, result.Scores, result.Settings)
		fmt.Fprintf(w, "  snapshot_rev: %s\n", result.SnapshotRev)
	})
}

func runSnapshotVerify(app *appctx.App, cmd *cobra.Command, args []string) error {
	in, _ := cmd.Flags().GetString("in")

	// app.Client is nil unless --against-store
	result, err := snapshot.Verify(app.Context(cmd.Context()), in, app.Client)
	if err != nil {
		return err
	}

	if err := app.Renderer.Render(result, func(w io.Writer) {
		icon := "✓"
		if !result.Valid {
			icon = "✗"
		}
		fmt.Fprintf(w, "%s %s: %s\n", icon, result.InputPath, result.Message)
	}); err != nil {
		return err
	}
	if !result.Valid {
		return ErrRunFailed
	}
	return nil
}
