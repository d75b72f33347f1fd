package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/qianfeiqianlan/2048-clash/internal/ledger"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the operation ran but did not succeed (upload failed, import rejected)
	ExitCommandError = 2 // bad arguments, unreadable files, storage errors
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors that are not an
// ExitError map to ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

var supportedLanguages = []language.Tag{language.English, language.Chinese}

// NewPrinter returns a number-formatting printer for lang, falling back to
// English for unknown tags.
func NewPrinter(lang string) *message.Printer {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	matched, _, _ := language.NewMatcher(supportedLanguages).Match(tag)
	return message.NewPrinter(matched)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRecords renders records as an aligned table.
func printRecords(w io.Writer, p *message.Printer, records []ledger.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "no scores yet")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tSCORE\tPLAYED\tSTATE\tGAME\t")
	for i, r := range records {
		played := time.UnixMilli(r.Timestamp).Local().Format("2006-01-02 15:04")
		p.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t\n", i+1, r.Score, played, r.State(), r.GameID)
	}
	return tw.Flush()
}
