package output

import (
	"fmt"
	"io"
	"strings"

	brewerr "github.com/mrz1836/brewbar/pkg/errors"
)

// ANSI color codes.
const (
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

// Notice is the title and message pair shown after every storefront action.
type Notice struct {
	Success bool   `json:"success"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Err     error  `json:"-"` // cause of a failure, for exit codes
}

// Successf builds a success notice.
func Successf(title, format string, args ...any) Notice {
	return Notice{Success: true, Title: title, Message: fmt.Sprintf(format, args...)}
}

// Failure builds a failure notice.
func Failure(title, message string) Notice {
	return Notice{Success: false, Title: title, Message: message}
}

// FailureFrom builds a failure notice carrying err. The message is the
// error's own message and JSON output includes the structured error.
func FailureFrom(title string, err error) Notice {
	return Notice{
		Success: false,
		Title:   title,
		Message: brewerr.Message(err),
		Data:    DescribeError(err),
		Err:     err,
	}
}

// WithData attaches a structured payload shown in JSON output.
func (n Notice) WithData(v any) Notice {
	n.Data = v
	return n
}

// RenderNotice writes the notice. Text output is a marked title line followed by
// the indented message.
func (f *Formatter) RenderNotice(n Notice) error {
	if f.IsJSON() {
		return writeJSON(f.writer, n)
	}
	return renderNoticeText(f.writer, n, f.Color())
}

func renderNoticeText(w io.Writer, n Notice, color bool) error {
	mark, tint := "✅", ansiGreen
	if !n.Success {
		mark, tint = "❌", ansiRed
	}

	title := n.Title
	if color {
		title = tint + ansiBold + title + ansiReset
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", mark, title)
	for _, line := range strings.Split(n.Message, "\n") {
		if line == "" {
			sb.WriteString("\n")
			continue
		}
		fmt.Fprintf(&sb, "   %s\n", line)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
