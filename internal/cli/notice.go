package cli

import (
	"fmt"
	"io"

	"github.com/mrz1836/brewbar/internal/output"
	brewerr "github.com/mrz1836/brewbar/pkg/errors"
)

// out is a helper for CLI output that ignores write errors (standard pattern for CLI tools).
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func out(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func outln(w io.Writer, args ...any) {
	fmt.Fprintln(w, args...)
}

// reportedError marks an error whose notice has already been printed.
// It keeps the cause so the exit code still reflects it.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string {
	return e.err.Error()
}

func (e *reportedError) Unwrap() error {
	return e.err
}

// renderNotice prints n and turns a failure notice into a command error.
func renderNotice(f *output.Formatter, n output.Notice) error {
	if err := f.RenderNotice(n); err != nil {
		return err
	}
	if n.Success {
		return nil
	}
	err := n.Err
	if err == nil {
		err = brewerr.WithMessage(brewerr.ErrGeneral, n.Message)
	}
	return &reportedError{err: err}
}
