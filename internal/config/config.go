package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/sweep"
)

// Backends
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config represents the application configuration
type Config struct {
	Backend     string `yaml:"backend" env:"LEVELSWEEP_BACKEND"`
	DBPath      string `yaml:"db_path" env:"LEVELSWEEP_DB_PATH"`
	DatabaseURL string `yaml:"database_url"` // LEVELSWEEP_DATABASE_URL or LEVELSWEEP_DATABASE_URL_FILE
	LogLevel    string `yaml:"log_level" env:"LEVELSWEEP_LOG_LEVEL"`
	LogFormat   string `yaml:"log_format" env:"LEVELSWEEP_LOG_FORMAT"`
	Output      string `yaml:"output" env:"LEVELSWEEP_OUTPUT"`

	ImportAuthorID   string `yaml:"import_author_id" env:"LEVELSWEEP_IMPORT_AUTHOR_ID"`
	ImportAuthorName string `yaml:"import_author_name" env:"LEVELSWEEP_IMPORT_AUTHOR_NAME"`

	TestMarkers Markers `yaml:"test_markers" envPrefix:"LEVELSWEEP_TEST_"`
}

// Markers configures the test-data filter. Env lists are comma-separated.
type Markers struct {
	AuthorIDs     []string `yaml:"author_ids" env:"AUTHOR_IDS" envSeparator:","`
	TitlePrefixes []string `yaml:"title_prefixes" env:"TITLE_PREFIXES" envSeparator:","`
	UserIDs       []string `yaml:"user_ids" env:"USER_IDS" envSeparator:","`
	Usernames     []string `yaml:"usernames" env:"USERNAMES" envSeparator:","`
}

// Sweep converts the markers to the filter's type
func (m Markers) Sweep() sweep.TestMarkers {
	return sweep.TestMarkers{
		AuthorIDs:     m.AuthorIDs,
		TitlePrefixes: m.TitlePrefixes,
		UserIDs:       m.UserIDs,
		Usernames:     m.Usernames,
	}
}

func defaults() *Config {
	return &Config{
		Backend:          BackendSQLite,
		LogLevel:         "info",
		LogFormat:        "auto",
		Output:           "table",
		ImportAuthorID:   "system",
		ImportAuthorName: "System",
		TestMarkers: Markers{
			AuthorIDs:     []string{"connectivity-test"},
			TitlePrefixes: []string{"__test__"},
			UserIDs:       []string{"connectivity-test"},
			Usernames:     []string{"connectivity-test"},
		},
	}
}

// Load loads configuration from multiple sources with precedence:
// 1. Environment variables
// 2. ./.env.local (dotenv) - walks up parent directories to find it
// 3. ~/.config/levelsweep/config.yaml (YAML)
// 4. Built-in defaults
//
// Command-line flags are applied on top by the CLI.
func Load() (*Config, error) {
	cfg := defaults()

	// Load ~/.config/levelsweep/config.yaml if it exists
	if err := loadYAMLConfig(cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config file: %w", err)
	}

	// Load .env.local if it exists (walking up parent directories).
	// godotenv never overrides variables already set in the environment.
	if envPath := findEnvLocal(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if url := getEnvOrFile("LEVELSWEEP_DATABASE_URL", "LEVELSWEEP_DATABASE_URL_FILE"); url != "" {
		cfg.DatabaseURL = url
	}

	if cfg.DBPath == "" {
		// Check for project-local database first
		if _, err := os.Stat(".levelsweep/levelsweep.db"); err == nil {
			cfg.DBPath = ".levelsweep/levelsweep.db"
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			cfg.DBPath = filepath.Join(homeDir, ".local", "share", "levelsweep", "levelsweep.db")
		}
	}

	return cfg, nil
}

// Validate checks enumerated fields and backend requirements
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("%w: db_path is required for the sqlite backend", domain.ErrInvalidOptions)
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: database_url is required for the postgres backend", domain.ErrInvalidOptions)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q (want sqlite or postgres)", domain.ErrInvalidOptions, c.Backend)
	}
	switch c.Output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("%w: unknown output %q (want table, json or yaml)", domain.ErrInvalidOptions, c.Output)
	}
	switch c.LogFormat {
	case "", "auto", "console", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", domain.ErrInvalidOptions, c.LogFormat)
	}
	return nil
}

// SystemAuthors returns the author ids that are not user records
func (c *Config) SystemAuthors() []string {
	authors := []string{"system"}
	if id := strings.TrimSpace(c.ImportAuthorID); id != "" && !strings.EqualFold(id, "system") {
		authors = append(authors, id)
	}
	return authors
}

// loadYAMLConfig loads configuration from ~/.config/levelsweep/config.yaml
func loadYAMLConfig(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(homeDir, ".config", "levelsweep", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// getEnvOrFile gets an environment variable value, or reads it from a file
// if the _FILE variant is set
func getEnvOrFile(envVar, fileVar string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}

	if filePath := os.Getenv(fileVar); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(data))
		}
	}

	return ""
}

// findEnvLocal searches for .env.local starting from cwd and walking up
// parent directories. Stops at the user's home directory.
func findEnvLocal() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		if _, err := os.Stat(".env.local"); err == nil {
			return ".env.local"
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	homeDir = filepath.Clean(homeDir)
	dir := filepath.Clean(cwd)

	for {
		envPath := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
		if dir == homeDir {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
