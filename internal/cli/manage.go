package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <gameId>",
		Short: "Delete one local score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			if !app.Scores.DeleteScore(cmd.Context(), args[0]) {
				return NewExitError(ExitFailure, fmt.Sprintf("no score with game id %s", args[0]))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func NewClearCommand(opts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every local score of the current player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return NewExitError(ExitCommandError, "refusing to clear scores without --yes")
			}
			app, err := opts.App()
			if err != nil {
				return err
			}
			if !app.Scores.ClearAllScores() {
				return NewExitError(ExitFailure, "failed to clear scores")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all local scores cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting all scores")
	return cmd
}

func NewExportCommand(opts *RootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export local scores as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			data, err := app.Scores.ExportData(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "export failed", err)
			}
			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), data)
				return nil
			}
			if err := os.WriteFile(out, []byte(data+"\n"), 0o644); err != nil {
				return WrapExitError(ExitCommandError, "writing export", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func NewImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace local scores with an export file",
		Long: `Replace the local scores of the current player with the contents of an
export file. Nothing changes if any record in the file is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "reading import file", err)
			}

			app, err := opts.App()
			if err != nil {
				return err
			}
			if err := app.Scores.Import(data); err != nil {
				return WrapExitError(ExitFailure, "import rejected", err)
			}
			app.Printer.Fprintf(cmd.OutOrStdout(), "imported %d scores\n", len(app.Ledger.ReadAll()))
			return nil
		},
	}
}
