package cli

import (
	"bufio"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/qianfeiqianlan/2048-clash/internal/board"
	"github.com/qianfeiqianlan/2048-clash/internal/scores"
	"github.com/spf13/cobra"
)

type PlayOptions struct {
	*RootOptions
	Seed    int64
	Offline bool
}

func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game of 2048",
		Long: `Play 2048 reading moves from standard input.

Moves are w/a/s/d, h/j/k/l or up/down/left/right, separated by spaces or
newlines. Enter q to stop. The score is saved when the game ends or when you
quit after at least one move.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed for tile spawns (0 = time based)")
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "keep the score local, do not upload")

	return cmd
}

func runPlay(opts *PlayOptions, cmd *cobra.Command) error {
	app, err := opts.App()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	game := board.New(rand.New(rand.NewSource(seed)))
	fmt.Fprint(out, game)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Split(bufio.ScanWords)
	for !game.Over() && scanner.Scan() {
		token := scanner.Text()
		if strings.EqualFold(token, "q") || strings.EqualFold(token, "quit") {
			break
		}
		d, ok := board.ParseDirection(token)
		if !ok {
			fmt.Fprintf(out, "unknown move %q\n", token)
			continue
		}
		if !game.Move(d) {
			continue
		}
		app.Printer.Fprintf(out, "%s  score %d\n", d, game.Score())
		fmt.Fprint(out, game)
		if game.Won() {
			fmt.Fprintln(out, "2048 reached!")
		}
	}
	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitCommandError, "reading moves", err)
	}

	if game.Over() {
		fmt.Fprintln(out, "game over")
	}
	if game.Moves() == 0 {
		fmt.Fprintln(out, "no moves made, nothing saved")
		return nil
	}

	rec, err := app.Scores.SaveScore(cmd.Context(), game.Score(), scores.SaveOptions{SkipUpload: opts.Offline})
	if err != nil {
		return WrapExitError(ExitCommandError, "saving score", err)
	}
	if opts.Format == "json" {
		return writeJSON(out, rec)
	}
	app.Printer.Fprintf(out, "saved score %d (%s)\n", rec.Score, rec.State())
	if rec.UploadError != "" {
		fmt.Fprintf(out, "upload failed: %s\n", rec.UploadError)
	}
	return nil
}
