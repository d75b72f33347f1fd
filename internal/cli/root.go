// Package cli is the game2048 command line: play, browse local scores, and
// keep them in step with the score service.
package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"slices"

	"github.com/qianfeiqianlan/2048-clash/internal/config"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	open func() (*App, error)
	app  *App
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command backed by the configured SQLite
// data file.
func NewRootCommand() *cobra.Command {
	return newRootCommand(defaultOptions())
}

func defaultOptions() *RootOptions {
	return &RootOptions{open: func() (*App, error) {
		return OpenApp(config.LoadClient())
	}}
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game2048",
		Short: "2048 Clash - play 2048 and keep your scores",
		Long: `Play 2048 in the terminal and keep a local record of every finished game.

Scores are stored locally first. When logged in they are uploaded to the
score service; failed uploads can be retried and local scores synced later.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Verbose {
				log.SetOutput(cmd.ErrOrStderr())
			} else {
				log.SetOutput(io.Discard)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewScoresCommands(opts)...)
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewRetryCommand(opts))
	cmd.AddCommand(NewUploadCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewMergeCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewLeaderboardCommand(opts))
	cmd.AddCommand(NewPingCommand(opts))

	return cmd
}

// App opens the application once per invocation.
func (o *RootOptions) App() (*App, error) {
	if o.app != nil {
		return o.app, nil
	}
	app, err := o.open()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open local data", err)
	}
	o.app = app
	return app, nil
}

// Close releases the app opened by a command, if any.
func (o *RootOptions) Close() error {
	if o.app == nil {
		return nil
	}
	err := o.app.Close()
	o.app = nil
	return err
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	opts := defaultOptions()
	defer opts.Close()

	if err := newRootCommand(opts).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return GetExitCode(err)
	}
	return ExitSuccess
}
