package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/qianfeiqianlan/2048-clash/internal/remote"
	"github.com/spf13/cobra"
)

func NewLeaderboardCommand(opts *RootOptions) *cobra.Command {
	var (
		limit  int
		follow bool
	)
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the best score of each player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			entries, err := app.Client.Leaderboard(cmd.Context(), limit)
			if err != nil {
				return NewExitError(ExitFailure, remote.Message(err))
			}
			if opts.Format == "json" && !follow {
				return writeJSON(out, entries)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tPLAYER\tSCORE\tDATE")
			for _, e := range entries {
				app.Printer.Fprintf(tw, "%d\t%s\t%d\t%s\n", e.Rank, e.Username, e.Score, e.Date)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if !follow {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Fprintln(out, "following live scores, press Ctrl+C to stop")
			err = app.Client.Follow(ctx, func(s remote.LiveScore) {
				app.Printer.Fprintf(out, "%s scored %d\n", s.Username, s.Score)
			})
			if err != nil {
				return NewExitError(ExitFailure, remote.Message(err))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of players (default set by the service)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing scores as they are accepted")
	return cmd
}

func NewPingCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the score service answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			if err := app.Client.Ping(cmd.Context()); err != nil {
				return NewExitError(ExitFailure, remote.Message(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "score service at %s is reachable\n", app.Config.APIURL)
			return nil
		},
	}
}
