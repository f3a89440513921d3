package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lherron/levelsweep/internal/cli/appctx"
	"github.com/lherron/levelsweep/internal/config"
	"github.com/lherron/levelsweep/internal/db"
	"github.com/lherron/levelsweep/internal/pgstore"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the store schema",
		Long: `Migrate applies any pending SQL migrations to the SQLite database.

Migrations are embedded in the levelsweep binary and tracked in the
schema_migrations table. Each migration file (e.g., 000001_baseline.sql)
is applied exactly once, so this command is safe to run repeatedly.

With --backend postgres the record tables are created if missing; --status
and --dry-run only read the catalog.

Use --dry-run to see which migrations would be applied without running them.
Use --status to show the current migration status.`,
		Args: cobra.NoArgs,
		RunE: appctx.WithApp(appctx.Options{NeedsClient: false}, runMigrate),
	}
	cmd.Flags().Bool("dry-run", false, "Show which migrations would be applied without running them")
	cmd.Flags().Bool("status", false, "Show current migration status")
	return cmd
}

type migrationStatus struct {
	Path    string   `json:"path" yaml:"path"`
	Applied []string `json:"applied" yaml:"applied"`
	Pending []string `json:"pending" yaml:"pending"`
}

func runMigrate(app *appctx.App, cmd *cobra.Command, args []string) error {
	status, _ := cmd.Flags().GetBool("status")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if app.Config.Backend == config.BackendPostgres {
		return migratePostgres(app, cmd, status || dryRun, dryRun)
	}

	database, err := db.Open(app.Config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if status || dryRun {
		applied, pending, err := database.MigrationStatus()
		if err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}
		st := migrationStatus{Path: database.Path(), Applied: applied, Pending: pending}
		if st.Applied == nil {
			st.Applied = []string{}
		}
		if st.Pending == nil {
			st.Pending = []string{}
		}
		if dryRun {
			return app.Renderer.Render(st, st.printPending)
		}
		return app.Renderer.Render(st, st.print)
	}

	applied, err := database.MigrateWithInfo()
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(applied) == 0 {
		fmt.Fprintln(out, "Database is up to date. No migrations to apply.")
		return nil
	}
	for _, m := range applied {
		fmt.Fprintf(out, "✓ Applied migration: %s\n", m)
	}
	fmt.Fprintf(out, "\nApplied %d migration(s).\n", len(applied))
	return nil
}

func migratePostgres(app *appctx.App, cmd *cobra.Command, readOnly, dryRun bool) error {
	ctx := app.Context(cmd.Context())
	client, err := pgstore.Connect(ctx, app.Config.DatabaseURL)
	if err != nil {
		return err
	}
	defer client.Close()

	if readOnly {
		missing, err := client.MissingTables(ctx)
		if err != nil {
			return err
		}
		st := migrationStatus{Path: "postgres", Applied: []string{}, Pending: []string{}}
		absent := make(map[string]bool, len(missing))
		for _, name := range missing {
			absent[name] = true
			st.Pending = append(st.Pending, "table "+name)
		}
		for _, name := range pgstore.Tables {
			if !absent[name] {
				st.Applied = append(st.Applied, "table "+name)
			}
		}
		if dryRun {
			return app.Renderer.Render(st, st.printPending)
		}
		return app.Renderer.Render(st, st.print)
	}

	if err := client.EnsureSchema(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Postgres schema is up to date")
	return nil
}

func (s migrationStatus) print(w io.Writer) {
	if len(s.Applied) == 0 && len(s.Pending) == 0 {
		fmt.Fprintln(w, "No migrations found.")
		return
	}
	if len(s.Applied) > 0 {
		fmt.Fprintln(w, "Applied migrations:")
		for _, m := range s.Applied {
			fmt.Fprintf(w, "  ✓ %s\n", m)
		}
	}
	if len(s.Pending) > 0 {
		if len(s.Applied) > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, "Pending migrations:")
		for _, m := range s.Pending {
			fmt.Fprintf(w, "  ○ %s\n", m)
		}
	}
}

func (s migrationStatus) printPending(w io.Writer) {
	if len(s.Pending) == 0 {
		fmt.Fprintln(w, "No pending migrations. Database is up to date.")
		return
	}
	fmt.Fprintln(w, "Pending migrations (would be applied):")
	for _, m := range s.Pending {
		fmt.Fprintf(w, "  ○ %s\n", m)
	}
	fmt.Fprintf(w, "\nTotal: %d migration(s) would be applied.\n", len(s.Pending))
}
