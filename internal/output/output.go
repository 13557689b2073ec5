// Package output formats libsearchctl's status messages: each CLI
// subcommand writes its outcome through a Writer rather than fmt directly,
// so the icon/indent convention stays in one place.
package output

import (
	"fmt"
	"io"
)

// Writer formats status lines for one command invocation's output stream.
type Writer struct {
	out io.Writer
}

// New creates a Writer over out.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints a message with an icon, or three leading spaces if icon
// is empty. Errors from writing are intentionally ignored: there is
// nowhere useful to report a write failure on the CLI's own stdout.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Success prints a success message with a checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✓", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}
