package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lherron/levelsweep/internal/cli/appctx"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type versionInfo struct {
	Version   string   `json:"version" yaml:"version"`
	Commit    string   `json:"commit" yaml:"commit"`
	BuildDate string   `json:"build_date" yaml:"build_date"`
	Commands  []string `json:"supported_commands" yaml:"supported_commands"`
	Backends  []string `json:"supported_backends" yaml:"supported_backends"`
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Displays version, commit, and build date information.`,
		Args:  cobra.NoArgs,
		RunE:  appctx.WithApp(appctx.Options{NeedsClient: false}, runVersion),
	}
}

func runVersion(app *appctx.App, cmd *cobra.Command, args []string) error {
	info := versionInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildDate: BuildDate,
		Commands:  []string{"import", "cleanup", "migrate", "best-score", "snapshot", "version"},
		Backends:  []string{"sqlite", "postgres"},
	}
	return app.Renderer.Render(info, func(w io.Writer) {
		fmt.Fprintf(w, "levelsweep version %s\n", info.Version)
		fmt.Fprintf(w, "  commit: %s\n", info.Commit)
		fmt.Fprintf(w, "  built:  %s\n", info.BuildDate)
	})
}
