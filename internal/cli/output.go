package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"blockpage/internal/domain"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The operation was rejected (not found, invalid argument, conflict...)
	ExitCommandError = 2 // Command error (bad flags, unreadable config, database unavailable)
)

// ExitError represents an error with a specific exit code.
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

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // text-mode errors (defaults to Writer)
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Kind    string `json:"kind"` // domain error kind, e.g. "not_found"
	Message string `json:"message"`
}

// Success writes data as JSON, or text for humans.
func (f *OutputFormatter) Success(data any, text string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}

// Fail reports err. JSON errors go to Writer so callers parse one stream.
func (f *OutputFormatter) Fail(err error) {
	kind := domain.ErrorKind(err)
	if f.Format == "json" {
		json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Kind: kind, Message: err.Error()},
		})
		return
	}
	fmt.Fprintf(f.errWriter(), "Error [%s]: %s\n", kind, err)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// ── text rendering ─────────────────────────────────────────

func describeBlock(b domain.Block) string {
	switch b.Kind {
	case domain.BlockKindText:
		style, text := "", ""
		if b.TextStyle != nil {
			style = string(*b.TextStyle)
		}
		if b.Text != nil {
			text = *b.Text
		}
		return fmt.Sprintf("%6d  %8d  %-3s %s", b.ID, b.Position, style, text)
	case domain.BlockKindImage:
		src, size := "", ""
		if b.ImageSrc != nil {
			src = *b.ImageSrc
		}
		if b.ImageWidth != nil || b.ImageHeight != nil {
			size = fmt.Sprintf(" (%sx%s)", dim(b.ImageWidth), dim(b.ImageHeight))
		}
		return fmt.Sprintf("%6d  %8d  img %s%s", b.ID, b.Position, src, size)
	}
	return fmt.Sprintf("%6d  %8d  %s", b.ID, b.Position, b.Kind)
}

func dim(v *int) string {
	if v == nil {
		return "?"
	}
	return fmt.Sprint(*v)
}

func describeBlocks(blocks []domain.Block) string {
	if len(blocks) == 0 {
		return "(no blocks)"
	}
	lines := make([]string, len(blocks))
	for i, b := range blocks {
		lines[i] = describeBlock(b)
	}
	return strings.Join(lines, "\n")
}
