// Package output writes findings as they are emitted.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/waftester/nucleibudget/pkg/finding"
)

// Writer receives findings one at a time. Implementations are safe for
// concurrent use.
type Writer interface {
	Write(f finding.Finding) error
	Close() error
}

// Options selects and configures a writer.
type Options struct {
	// Format is "console", "jsonl" or "template".
	Format string

	// Color enables styled console output.
	Color bool

	// Template is an inline template or the name of a built-in
	// ("csv", "markdown") for the template format.
	Template string
}

// New returns the writer for opts.Format writing to w.
func New(w io.Writer, opts Options) (Writer, error) {
	switch strings.ToLower(opts.Format) {
	case "", "console":
		return NewConsoleWriter(w, opts.Color), nil
	case "jsonl":
		return NewJSONLWriter(w), nil
	case "template":
		return NewTemplateWriter(w, opts.Template)
	default:
		return nil, fmt.Errorf("unknown output format: %s", opts.Format)
	}
}

// closeUnderlying closes w when it is a Closer other than the process
// standard streams.
func closeUnderlying(w io.Writer) error {
	if c, ok := w.(io.Closer); ok && !isStdStream(w) {
		return c.Close()
	}
	return nil
}
