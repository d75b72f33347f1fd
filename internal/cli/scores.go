package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/qianfeiqianlan/2048-clash/internal/ledger"
	"github.com/spf13/cobra"
)

// NewScoresCommands creates the read-only views over the local ledger.
func NewScoresCommands(opts *RootOptions) []*cobra.Command {
	list := func(use, short string, read func(ctx context.Context, app *App, n int) []ledger.Record, defaultN int) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n := defaultN
				if len(args) == 1 {
					v, err := strconv.Atoi(args[0])
					if err != nil || v < 0 {
						return NewExitError(ExitCommandError, fmt.Sprintf("invalid count %q", args[0]))
					}
					n = v
				}
				app, err := opts.App()
				if err != nil {
					return err
				}
				records := read(cmd.Context(), app, n)
				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), records)
				}
				return printRecords(cmd.OutOrStdout(), app.Printer, records)
			},
		}
	}

	return []*cobra.Command{
		list("scores", "List every local score, newest first", func(ctx context.Context, app *App, _ int) []ledger.Record {
			return app.Scores.GetAllScores(ctx)
		}, 0),
		list("recent [n]", "Show the n most recent scores", func(ctx context.Context, app *App, n int) []ledger.Record {
			return app.Scores.GetRecentScores(ctx, n)
		}, 10),
		list("top [n]", "Show the n best scores", func(ctx context.Context, app *App, n int) []ledger.Record {
			return app.Scores.GetTopScores(ctx, n)
		}, 10),
		list("today", "Show scores played today", func(ctx context.Context, app *App, _ int) []ledger.Record {
			return app.Scores.GetTodayScores(ctx)
		}, 0),
		list("week", "Show scores played this week", func(ctx context.Context, app *App, _ int) []ledger.Record {
			return app.Scores.GetThisWeekScores(ctx)
		}, 0),
		newStatsCommand(opts),
	}
}

func newStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarise local scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			stats := app.Scores.GetStatistics(cmd.Context())
			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				return writeJSON(out, stats)
			}
			p := app.Printer
			p.Fprintf(out, "games played  %d\n", stats.TotalGames)
			p.Fprintf(out, "best score    %d\n", stats.BestScore)
			p.Fprintf(out, "lowest score  %d\n", stats.LowestScore)
			p.Fprintf(out, "average score %d\n", stats.AverageScore)
			p.Fprintf(out, "total score   %d\n", stats.TotalScore)
			p.Fprintf(out, "wins          %d (%d%%)\n", stats.WinCount, stats.WinRate)
			return nil
		},
	}
}
