// Package cli implements the levelsweep command tree
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// ErrRunFailed is returned after a report with errors has been printed.
// The caller exits 1 without printing it again.
var ErrRunFailed = errors.New("run finished with errors")

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "levelsweep",
		Short: "Import and clean up records in the level store",
		Long: `levelsweep keeps the level-sharing record store tidy. It imports level
documents from a directory, and removes duplicate, orphaned and test
records or repairs malformed ones.

Every run can be previewed with --dry-run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("db", "", "Path to SQLite database file (overrides LEVELSWEEP_DB_PATH)")
	root.PersistentFlags().String("backend", "", "Store backend: sqlite or postgres (overrides LEVELSWEEP_BACKEND)")
	root.PersistentFlags().String("database-url", "", "Postgres connection URL (overrides LEVELSWEEP_DATABASE_URL)")
	root.PersistentFlags().String("options", "", "YAML file with run options; flags override its values")
	root.PersistentFlags().StringP("output", "o", "", "Output format: table, json or yaml")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "", "Log format: auto, console or json")

	root.AddCommand(
		newImportCmd(),
		newCleanupCmd(),
		newMigrateCmd(),
		newBestScoreCmd(),
		newSnapshotCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command. Interrupts cancel the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}
