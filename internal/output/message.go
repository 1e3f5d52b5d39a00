package output

import (
	"fmt"
	"io"
)

// Info prints an informational line.
func Info(w io.Writer, msg string) {
	_, _ = fmt.Fprintln(w, "ℹ️  "+msg)
}

// Infof prints a formatted informational line.
func Infof(w io.Writer, format string, args ...any) {
	Info(w, fmt.Sprintf(format, args...))
}

// Warn prints a warning line.
func Warn(w io.Writer, msg string) {
	_, _ = fmt.Fprintln(w, "⚠️  "+msg)
}

// Warnf prints a formatted warning line.
func Warnf(w io.Writer, format string, args ...any) {
	Warn(w, fmt.Sprintf(format, args...))
}
