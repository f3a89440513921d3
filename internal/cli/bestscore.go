package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lherron/levelsweep/internal/cli/appctx"
	"github.com/lherron/levelsweep/internal/domain"
)

func newBestScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "best-score",
		Short: "Show a user's best score on a level",
		Long: `Best-score prints the score with the fewest strokes that a user has
recorded on a level. Ties go to the earliest score.`,
		Example: `  levelsweep best-score --user U1 --level L1 --output json`,
		Args:    cobra.NoArgs,
		RunE:    appctx.WithApp(appctx.DefaultOptions(), runBestScore),
	}
	cmd.Flags().String("user", "", "User id")
	cmd.Flags().String("level", "", "Level id")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("level")
	return cmd
}

func runBestScore(app *appctx.App, cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")
	levelID, _ := cmd.Flags().GetString("level")

	score, err := app.Client.GetBestScore(app.Context(cmd.Context()), userID, levelID)
	if err != nil {
		return fmt.Errorf("best score: %w", err)
	}

	return app.Renderer.Render(score, func(w io.Writer) {
		created := domain.FormatTime(score.CreatedAt)
		if created == "" {
			created = "-"
		}
		_ = app.Renderer.RenderTable(
			[]string{"ID", "LEVEL", "USER", "STROKES", "CREATED"},
			[][]string{{score.ID, score.LevelID, score.UserID, strconv.Itoa(score.Strokes), created}},
		)
	})
}
