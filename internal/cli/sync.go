package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qianfeiqianlan/2048-clash/internal/scores"
	"github.com/spf13/cobra"
)

// report prints a coordinator result and turns an unsuccessful one into an
// ExitFailure.
func report(opts *RootOptions, cmd *cobra.Command, result any, success bool, message string) error {
	if opts.Format == "json" {
		if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), message)
	}
	if !success {
		return NewExitError(ExitFailure, message)
	}
	return nil
}

func NewRetryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Retry uploading scores whose upload failed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			res := app.Scores.RetryFailedUploads(cmd.Context())
			return report(opts, cmd, res, res.Success, res.Message)
		},
	}
}

func NewUploadCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload",
		Short: "Upload local-only and never-uploaded scores in one batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			res := app.Scores.BatchUploadScores(cmd.Context(), nil)
			return report(opts, cmd, res, res.Success, res.Message)
		},
	}
}

func NewSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push unconfirmed scores and replace the ledger with the server copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			if !app.Session.IsAuthenticated() {
				return NewExitError(ExitCommandError, "please log in before syncing")
			}
			app.Scores.ResetSyncState()
			records := app.Scores.GetAllScores(cmd.Context())
			if !app.Scores.Synced() {
				return NewExitError(ExitFailure, "sync failed, local scores were kept")
			}
			app.Printer.Fprintf(cmd.OutOrStdout(), "synced %d scores\n", len(records))
			return nil
		},
	}
}

func NewMergeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Add server scores missing from the local ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			user, ok := app.Session.CurrentIdentity()
			if !ok {
				return NewExitError(ExitCommandError, "please log in before merging")
			}
			res := app.Scores.MergeFromServer(cmd.Context(), user.ID)
			return report(opts, cmd, res, res.Success, res.Message)
		},
	}
}

func NewWatchCommand(opts *RootOptions) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep retrying failed uploads until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			every := interval
			if every <= 0 {
				every = app.Config.RetryInterval
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if _, err := scores.StartRetryScheduler(ctx, app.Scores, every); err != nil {
				return WrapExitError(ExitCommandError, "starting retry scheduler", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "retrying failed uploads every %s, press Ctrl+C to stop\n", every)
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "retry interval (default GAME2048_RETRY_INTERVAL)")
	return cmd
}
