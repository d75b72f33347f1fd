package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/qianfeiqianlan/2048-clash/internal/remote"
	"github.com/spf13/cobra"
)

func NewLoginCommand(opts *RootOptions) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in to the score service, creating the account on first use",
		Long: `Log in to the score service. The password is read from --password or,
when absent, from the first line of standard input. Local scores are synced
right after a successful login.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return NewExitError(ExitCommandError, "password is required")
				}
				password = strings.TrimRight(line, "\r\n")
			}
			app, err := opts.App()
			if err != nil {
				return err
			}
			user, err := app.Client.Login(cmd.Context(), args[0], password)
			if err != nil {
				return NewExitError(ExitFailure, remote.Message(err))
			}

			app.Scores.ResetSyncState()
			records := app.Scores.GetAllScores(cmd.Context())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "logged in as %s\n", user.Username)
			if app.Scores.Synced() {
				app.Printer.Fprintf(out, "synced %d scores\n", len(records))
			} else {
				fmt.Fprintln(out, "sync failed, run `game2048 sync` to try again")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			app.Client.Logout()
			app.Scores.ResetSyncState()
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func NewWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in player and where scores are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			user, ok := app.Session.CurrentIdentity()
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"authenticated": ok,
					"user":          user,
					"ledgerKey":     app.Ledger.Key(),
					"apiUrl":        app.Config.APIURL,
				})
			}
			out := cmd.OutOrStdout()
			if ok {
				fmt.Fprintf(out, "logged in as %s (%s)\n", user.Username, user.ID)
			} else {
				fmt.Fprintln(out, "not logged in")
			}
			fmt.Fprintf(out, "ledger  %s\n", app.Ledger.Key())
			fmt.Fprintf(out, "service %s\n", app.Config.APIURL)
			return nil
		},
	}
}
