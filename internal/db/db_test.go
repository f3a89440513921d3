package db_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/lherron/levelsweep/internal/db"
)

func openTemp(t *testing.T) (*db.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "levelsweep.db")
	database, err := db.Open(path)
	if err != nil {
		t.Fatalf("could not open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database, path
}

func TestMigrateWithInfo(t *testing.T) {
	database, _ := openTemp(t)

	applied, err := database.MigrateWithInfo()
	if err != nil {
		t.Fatalf("MigrateWithInfo: %v", err)
	}
	if len(applied) != 2 || applied[0] != "000001_baseline.sql" || applied[1] != "000002_event_log.sql" {
		t.Errorf("applied = %v", applied)
	}

	for _, table := range []string{"levels", "users", "scores", "settings", "event_log"} {
		var count int
		if err := database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count != 1 {
			t.Errorf("table %s missing", table)
		}
	}

	again, err := database.MigrateWithInfo()
	if err != nil {
		t.Fatalf("second MigrateWithInfo: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second run applied %v, want nothing", again)
	}
}

func TestRequiresMigrationError(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, d *db.DB)
		wantNil bool
		want    []string
	}{
		{
			name:  "fresh db",
			setup: func(t *testing.T, d *db.DB) {},
			want:  []string{"version: none", "2 pending migration(s)", "levelsweep migrate"},
		},
		{
			name: "partially migrated",
			setup: func(t *testing.T, d *db.DB) {
				_, err := d.Exec(`
					CREATE TABLE schema_migrations (
						version TEXT PRIMARY KEY,
						applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
					);
					INSERT INTO schema_migrations (version) VALUES ('000001_baseline.sql');
				`)
				if err != nil {
					t.Fatal(err)
				}
			},
			want: []string{"version: 000001_baseline.sql", "1 pending migration(s)"},
		},
		{
			name: "fully migrated",
			setup: func(t *testing.T, d *db.DB) {
				if err := d.Migrate(); err != nil {
					t.Fatal(err)
				}
			},
			wantNil: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database, path := openTemp(t)
			tt.setup(t, database)

			err := database.RequiresMigrationError()
			if tt.wantNil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected migration error, got nil")
			}
			msg := err.Error()
			if !strings.Contains(msg, path) {
				t.Errorf("error should contain db path %q, got: %s", path, msg)
			}
			for _, w := range tt.want {
				if !strings.Contains(msg, w) {
					t.Errorf("error should contain %q, got: %s", w, msg)
				}
			}
		})
	}
}

func TestMigrationStatus(t *testing.T) {
	database, _ := openTemp(t)

	applied, pending, err := database.MigrationStatus()
	if err != nil {
		t.Fatal(err)
	}
	if len(applied) != 0 || len(pending) != 2 {
		t.Errorf("fresh: applied=%v pending=%v", applied, pending)
	}

	if err := database.Migrate(); err != nil {
		t.Fatal(err)
	}
	applied, pending, err = database.MigrationStatus()
	if err != nil {
		t.Fatal(err)
	}
	if len(applied) != 2 || len(pending) != 0 {
		t.Errorf("migrated: applied=%v pending=%v", applied, pending)
	}
}
