package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lherron/levelsweep/internal/domain"
)

// isolate points HOME at a fresh directory and runs the test from inside it,
// so no real config or .env.local leaks in.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	work := filepath.Join(home, "work")
	if err := os.MkdirAll(work, 0755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(work)
	return home
}

func TestFindEnvLocal(t *testing.T) {
	tests := []struct {
		name   string
		envAt  []string // dirs relative to the root that get a .env.local
		cwd    string
		wantAt string // "" means not found
	}{
		{name: "current dir", envAt: []string{"a"}, cwd: "a", wantAt: "a"},
		{name: "parent dir", envAt: []string{"a"}, cwd: "a/b", wantAt: "a"},
		{name: "grandparent dir", envAt: []string{"a"}, cwd: "a/b/c", wantAt: "a"},
		{name: "closest wins", envAt: []string{"a", "a/b"}, cwd: "a/b/c", wantAt: "a/b"},
		{name: "stops at home", envAt: nil, cwd: "a/b", wantAt: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			t.Setenv("HOME", root)
			if err := os.MkdirAll(filepath.Join(root, tt.cwd), 0755); err != nil {
				t.Fatal(err)
			}
			for _, d := range tt.envAt {
				if err := os.WriteFile(filepath.Join(root, d, ".env.local"), []byte("X=1"), 0644); err != nil {
					t.Fatal(err)
				}
			}
			t.Chdir(filepath.Join(root, tt.cwd))

			got := findEnvLocal()
			if tt.wantAt == "" {
				if got != "" {
					t.Errorf("findEnvLocal() = %q, want not found", got)
				}
				return
			}
			want, _ := filepath.EvalSymlinks(filepath.Join(root, tt.wantAt, ".env.local"))
			gotResolved, _ := filepath.EvalSymlinks(got)
			if gotResolved != want {
				t.Errorf("findEnvLocal() = %q, want %q", gotResolved, want)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendSQLite || cfg.Output != "table" || cfg.LogLevel != "info" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	wantDB := filepath.Join(home, ".local", "share", "levelsweep", "levelsweep.db")
	if cfg.DBPath != wantDB {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, wantDB)
	}
	if cfg.ImportAuthorID != "system" || cfg.ImportAuthorName != "System" {
		t.Errorf("import identity = %q/%q", cfg.ImportAuthorID, cfg.ImportAuthorName)
	}
	if len(cfg.TestMarkers.TitlePrefixes) != 1 || cfg.TestMarkers.TitlePrefixes[0] != "__test__" {
		t.Errorf("TitlePrefixes = %v", cfg.TestMarkers.TitlePrefixes)
	}
}

func TestLoadPrecedence(t *testing.T) {
	home := isolate(t)

	yamlPath := filepath.Join(home, ".config", "levelsweep", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(yamlPath), 0755); err != nil {
		t.Fatal(err)
	}
	yamlData := "backend: postgres\noutput: yaml\nlog_level: warn\nimport_author_id: migrator\ntest_markers:\n  usernames: [probe]\n"
	if err := os.WriteFile(yamlPath, []byte(yamlData), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, "work", ".env.local"), []byte("LEVELSWEEP_OUTPUT=json\nLEVELSWEEP_LOG_LEVEL=error\n"), 0644); err != nil {
		t.Fatal(err)
	}
	secret := filepath.Join(home, "db-url")
	if err := os.WriteFile(secret, []byte("postgres://u:p@localhost/levels\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LEVELSWEEP_LOG_LEVEL", "debug")
	t.Setenv("LEVELSWEEP_DATABASE_URL_FILE", secret)
	t.Setenv("LEVELSWEEP_TEST_TITLE_PREFIXES", "__probe__,zz-")
	// godotenv.Load sets process env; make sure the test cleans it up
	t.Setenv("LEVELSWEEP_OUTPUT", "")
	os.Unsetenv("LEVELSWEEP_OUTPUT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendPostgres {
		t.Errorf("Backend = %q, want from yaml", cfg.Backend)
	}
	if cfg.Output != "json" {
		t.Errorf("Output = %q, want .env.local over yaml", cfg.Output)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want env over .env.local", cfg.LogLevel)
	}
	if cfg.DatabaseURL != "postgres://u:p@localhost/levels" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if got := cfg.TestMarkers.TitlePrefixes; len(got) != 2 || got[1] != "zz-" {
		t.Errorf("TitlePrefixes = %v", got)
	}
	if got := cfg.TestMarkers.Usernames; len(got) != 1 || got[0] != "probe" {
		t.Errorf("Usernames = %v", got)
	}
	if got := cfg.SystemAuthors(); len(got) != 2 || got[1] != "migrator" {
		t.Errorf("SystemAuthors() = %v", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown backend", func(c *Config) { c.Backend = "mongo" }, true},
		{"postgres without url", func(c *Config) { c.Backend = BackendPostgres }, true},
		{"postgres with url", func(c *Config) { c.Backend = BackendPostgres; c.DatabaseURL = "postgres://x" }, false},
		{"unknown output", func(c *Config) { c.Output = "xml" }, true},
		{"unknown log format", func(c *Config) { c.LogFormat = "logfmt" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			cfg.DBPath = "test.db"
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidOptions) {
				t.Errorf("error %v does not wrap ErrInvalidOptions", err)
			}
		})
	}
}
