package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"finance-tracker/internal/ledger"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // rejected input
	ExitCommandError = 2 // config, storage or remote failure
)

// ExitError carries the process exit code of a failed command.
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

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ledgerError picks the exit code for an error returned by the ledger.
func ledgerError(message string, err error) error {
	if ledger.IsValidation(err) || errors.Is(err, ledger.ErrAccessDenied) {
		return WrapExitError(ExitFailure, message, err)
	}
	return WrapExitError(ExitCommandError, message, err)
}

// CLIResponse is the JSON envelope of --format json.
type CLIResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Sync   *syncJSON   `json:"sync,omitempty"`
}

type syncJSON struct {
	OK       bool   `json:"ok"`
	Skipped  bool   `json:"skipped,omitempty"`
	Revision string `json:"revision,omitempty"`
	Warning  string `json:"warning,omitempty"`
}

// OutputFormatter handles JSON vs text output.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
}

// Success prints data; text mode uses the text callback.
func (f *OutputFormatter) Success(data interface{}, report *ledger.SyncReport, text func(w io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
			Sync:   syncResult(report),
		})
	}

	if text != nil {
		text(f.Writer)
	}
	f.printSync(report)
	return nil
}

func (f *OutputFormatter) printSync(report *ledger.SyncReport) {
	switch {
	case report == nil, report.Skipped():
	case report.Err != nil:
		w := f.ErrWriter
		if w == nil {
			w = f.Writer
		}
		fmt.Fprintf(w, "warning: %s\n", report.Message())
	default:
		fmt.Fprintln(f.Writer, report.Message())
	}
}

func syncResult(report *ledger.SyncReport) *syncJSON {
	switch {
	case report == nil:
		return nil
	case report.Skipped():
		return &syncJSON{Skipped: true}
	case report.Err != nil:
		return &syncJSON{Warning: report.Message()}
	}
	return &syncJSON{OK: true, Revision: report.Result.Revision}
}
