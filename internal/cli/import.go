package cli

import (
	"github.com/spf13/cobra"

	"github.com/lherron/levelsweep/internal/cli/appctx"
	"github.com/lherron/levelsweep/internal/config"
	"github.com/lherron/levelsweep/internal/run"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import level documents from a directory",
		Long: `Import reads every *.json file in --dir and creates one level per file.

A file whose title and author match an existing level is skipped, or with
--overwrite replaces that level's title, author name and content. Two files
with the same key in one batch: the first wins.

Files that cannot be parsed are reported and the rest are still imported.`,
		Example: `  levelsweep import --dir ./levels --dry-run
  levelsweep import --dir ./levels --overwrite --author-id system`,
		Args: cobra.NoArgs,
		RunE: appctx.WithApp(appctx.DefaultOptions(), runImport),
	}

	cmd.Flags().String("dir", "", "Directory of level documents")
	cmd.Flags().Bool("dry-run", false, "Show what would be imported without writing")
	cmd.Flags().Bool("overwrite", false, "Update levels that already exist")
	cmd.Flags().String("author-id", "", "Author id for imported levels (default from config)")
	cmd.Flags().String("author-name", "", "Author name for imported levels (default from config)")
	return cmd
}

func runImport(app *appctx.App, cmd *cobra.Command, args []string) error {
	var o config.ImportOptions
	if err := readOptions(cmd, &o); err != nil {
		return err
	}
	overrideString(cmd, "dir", &o.Dir)
	overrideBool(cmd, "dry-run", &o.DryRun)
	overrideBool(cmd, "overwrite", &o.Overwrite)
	overrideString(cmd, "author-id", &o.AuthorID)
	overrideString(cmd, "author-name", &o.AuthorName)

	opts, err := config.NewImportOptions(app.Config, o)
	if err != nil {
		return err
	}
	return runJob(app, cmd, &run.ImportJob{Options: opts.Importer()}, opts.DryRun)
}
