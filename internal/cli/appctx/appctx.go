// Package appctx provides a shared bootstrap helper for CLI commands.
// It centralizes config loading, logger setup, and store client opening
// to reduce boilerplate across commands.
package appctx

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lherron/levelsweep/internal/config"
	"github.com/lherron/levelsweep/internal/db"
	"github.com/lherron/levelsweep/internal/logging"
	"github.com/lherron/levelsweep/internal/pgstore"
	"github.com/lherron/levelsweep/internal/render"
	"github.com/lherron/levelsweep/internal/store"
	"github.com/lherron/levelsweep/internal/sweep"
)

// App holds the shared application context for commands.
type App struct {
	// Config is the loaded configuration with flag overrides applied
	Config *config.Config

	// Logger is the configured process logger
	Logger *zerolog.Logger

	// Client is the record store (nil if NeedsClient is false)
	Client sweep.Client

	// Renderer writes results in the --output format
	Renderer *render.Renderer

	closers []func()
}

// Close releases resources held by the App.
// Safe to call multiple times.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Context returns ctx carrying the app logger
func (a *App) Context(ctx context.Context) context.Context {
	return logging.WithLogger(ctx, a.Logger)
}

// Options configures the bootstrap behavior.
type Options struct {
	// NeedsClient indicates whether to open the record store.
	NeedsClient bool
}

// DefaultOptions returns default options (store required).
func DefaultOptions() Options {
	return Options{NeedsClient: true}
}

// RunFunc is the signature for command run functions.
type RunFunc func(app *App, cmd *cobra.Command, args []string) error

// WithApp wraps a command's run function with shared bootstrap logic.
// The store is closed automatically when the wrapped function returns.
func WithApp(opts Options, fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := Bootstrap(cmd, opts)
		if err != nil {
			return err
		}
		defer app.Close()

		return fn(app, cmd, args)
	}
}

// Bootstrap initializes the App according to the given options.
// Callers are responsible for calling App.Close() when done.
func Bootstrap(cmd *cobra.Command, opts Options) (*App, error) {
	app := &App{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	app.Config = cfg

	logger, err := logging.Configure(cfg.LogLevel, logging.Format(cfg.LogFormat))
	if err != nil {
		return nil, err
	}
	app.Logger = logger

	format, err := render.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}
	app.Renderer = render.NewRenderer(cmd.OutOrStdout(), format)

	if opts.NeedsClient {
		if err := app.openClient(cmd.Context()); err != nil {
			app.Close()
			return nil, err
		}
	}

	return app, nil
}

func (a *App) openClient(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	switch a.Config.Backend {
	case config.BackendPostgres:
		c, err := pgstore.Connect(ctx, a.Config.DatabaseURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, c.Close)
		if err := c.RequiresMigrationError(ctx); err != nil {
			return err
		}
		a.Client = c
	default:
		database, err := db.Open(a.Config.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		a.closers = append(a.closers, func() { database.Close() })
		if err := database.RequiresMigrationError(); err != nil {
			return err
		}
		a.Client = store.NewClient(store.New(database))
	}
	a.Logger.Debug().Str("backend", a.Config.Backend).Msg("Store opened")
	return nil
}

// applyFlags copies the persistent flags the user set onto cfg
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	set := func(name string, dst *string) {
		if f := cmd.Flag(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	set("db", &cfg.DBPath)
	set("backend", &cfg.Backend)
	set("database-url", &cfg.DatabaseURL)
	set("output", &cfg.Output)
	set("log-level", &cfg.LogLevel)
	set("log-format", &cfg.LogFormat)
}
