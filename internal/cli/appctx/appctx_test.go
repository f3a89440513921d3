package appctx

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/lherron/levelsweep/internal/db"
	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/render"
)

// isolate points HOME and cwd at empty temp dirs so no real config leaks in
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	for _, key := range []string{"LEVELSWEEP_BACKEND", "LEVELSWEEP_DB_PATH", "LEVELSWEEP_DATABASE_URL", "LEVELSWEEP_OUTPUT", "LEVELSWEEP_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func testCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("db", "", "Database path")
	cmd.Flags().String("backend", "", "Backend")
	cmd.Flags().String("database-url", "", "Database URL")
	cmd.Flags().String("output", "", "Output")
	cmd.Flags().String("log-level", "", "Log level")
	cmd.Flags().String("log-format", "", "Log format")
	return cmd
}

func migratedDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	database.Close()
	return dbPath
}

func TestBootstrap_ConfigOnly(t *testing.T) {
	isolate(t)
	t.Setenv("LEVELSWEEP_DB_PATH", filepath.Join(t.TempDir(), "unused.db"))

	app, err := Bootstrap(testCommand(), Options{NeedsClient: false})
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	defer app.Close()

	if app.Config == nil {
		t.Error("Config should not be nil")
	}
	if app.Client != nil {
		t.Error("Client should be nil when NeedsClient is false")
	}
	if app.Renderer.Format() != render.FormatTable {
		t.Errorf("format = %s, want table", app.Renderer.Format())
	}
}

func TestBootstrap_WithClient(t *testing.T) {
	isolate(t)
	t.Setenv("LEVELSWEEP_DB_PATH", migratedDB(t))

	app, err := Bootstrap(testCommand(), DefaultOptions())
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	defer app.Close()

	if app.Client == nil {
		t.Fatal("Client should be set")
	}
	levels, err := app.Client.ListLevels(app.Context(t.Context()))
	if err != nil {
		t.Fatalf("ListLevels: %v", err)
	}
	if len(levels) != 0 {
		t.Errorf("expected empty store, got %d levels", len(levels))
	}

	// Close is idempotent
	app.Close()
	app.Close()
}

func TestBootstrap_FlagsOverrideEnv(t *testing.T) {
	isolate(t)
	t.Setenv("LEVELSWEEP_DB_PATH", filepath.Join(t.TempDir(), "env.db"))
	t.Setenv("LEVELSWEEP_OUTPUT", "yaml")

	flagDB := migratedDB(t)
	cmd := testCommand()
	if err := cmd.Flags().Set("db", flagDB); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("output", "json"); err != nil {
		t.Fatal(err)
	}

	app, err := Bootstrap(cmd, DefaultOptions())
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	defer app.Close()

	if app.Config.DBPath != flagDB {
		t.Errorf("DBPath = %s, want %s", app.Config.DBPath, flagDB)
	}
	if app.Renderer.Format() != render.FormatJSON {
		t.Errorf("format = %s, want json", app.Renderer.Format())
	}
}

func TestBootstrap_PendingMigrations(t *testing.T) {
	isolate(t)
	t.Setenv("LEVELSWEEP_DB_PATH", filepath.Join(t.TempDir(), "fresh.db"))

	_, err := Bootstrap(testCommand(), DefaultOptions())
	if err == nil {
		t.Fatal("expected migration error")
	}
	if !strings.Contains(err.Error(), "levelsweep migrate") {
		t.Errorf("error should suggest migrate, got: %v", err)
	}
}

func TestBootstrap_InvalidBackend(t *testing.T) {
	isolate(t)
	cmd := testCommand()
	if err := cmd.Flags().Set("backend", "mongo"); err != nil {
		t.Fatal(err)
	}

	_, err := Bootstrap(cmd, DefaultOptions())
	if !errors.Is(err, domain.ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions, got %v", err)
	}
}
