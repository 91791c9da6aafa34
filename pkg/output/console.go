package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/waftester/nucleibudget/pkg/finding"
	"github.com/waftester/nucleibudget/pkg/ui"
)

// Compile-time interface check.
var _ Writer = (*ConsoleWriter)(nil)

// ConsoleWriter prints one nuclei-style line per finding:
//
//	[git-config] [HIGH] https://example.com/.git/config (Git Config Exposure)
type ConsoleWriter struct {
	w     io.Writer
	color bool

	mu     sync.Mutex
	closed bool
}

// NewConsoleWriter creates a console writer. color enables lipgloss styling.
func NewConsoleWriter(w io.Writer, color bool) *ConsoleWriter {
	return &ConsoleWriter{w: w, color: color}
}

// Write prints f.
func (cw *ConsoleWriter) Write(f finding.Finding) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.closed {
		return ErrClosed
	}

	tmpl := "[" + f.TemplateID + "]"
	sev := "[" + f.Level().Upper() + "]"
	url := f.URL
	if cw.color {
		tmpl = ui.TemplateStyle.Render(tmpl)
		sev = ui.SeverityBadge(f.Level())
		url = ui.HostStyle.Render(url)
	}
	_, err := fmt.Fprintf(cw.w, "%s %s %s (%s)\n", tmpl, sev, url, ui.SanitizeString(f.Name))
	return err
}

// Close closes the underlying file, if any.
func (cw *ConsoleWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.closed {
		return nil
	}
	cw.closed = true
	return closeUnderlying(cw.w)
}
