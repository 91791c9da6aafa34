package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/waftester/nucleibudget/pkg/finding"
	"github.com/waftester/nucleibudget/pkg/jsonutil"
	"github.com/waftester/nucleibudget/pkg/ui"
)

// Compile-time interface check.
var _ Writer = (*TemplateWriter)(nil)

// builtInTemplates are rendered once per finding.
var builtInTemplates = map[string]string{
	"csv":      `{{ .Severity }},{{ .TemplateID | escapeCSV }},{{ .Host | escapeCSV }},{{ .URL | escapeCSV }},{{ .Name | escapeCSV }}`,
	"markdown": `| {{ .Severity }} | {{ .TemplateID }} | {{ .URL }} | {{ .Name | replace "|" "\\|" }} |`,
}

// TemplateWriter renders each finding with a Go template. Sprig functions
// are available, plus escapeCSV, json and severityLabel.
type TemplateWriter struct {
	w    io.Writer
	tmpl *template.Template

	mu     sync.Mutex
	closed bool
}

// NewTemplateWriter parses text, or the built-in it names, and returns a
// writer. A trailing newline is added to every rendered finding that lacks one.
func NewTemplateWriter(w io.Writer, text string) (*TemplateWriter, error) {
	if builtin, ok := builtInTemplates[text]; ok {
		text = builtin
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no template specified: pass an inline template or one of: csv, markdown")
	}

	funcMap := sprig.TxtFuncMap()
	funcMap["escapeCSV"] = tmplEscapeCSV
	funcMap["json"] = tmplToJSON
	funcMap["severityLabel"] = func(s string) string { return ui.SeverityLabel(finding.Severity(s)) }

	tmpl, err := template.New("finding").Funcs(funcMap).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse output template: %w", err)
	}
	return &TemplateWriter{w: w, tmpl: tmpl}, nil
}

// Write renders f.
func (tw *TemplateWriter) Write(f finding.Finding) error {
	var buf bytes.Buffer
	if err := tw.tmpl.Execute(&buf, f); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}
	if b := buf.Bytes(); len(b) == 0 || b[len(b)-1] != '\n' {
		buf.WriteByte('\n')
	}

	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.closed {
		return ErrClosed
	}
	_, err := tw.w.Write(buf.Bytes())
	return err
}

// Close closes the underlying file, if any.
func (tw *TemplateWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.closed {
		return nil
	}
	tw.closed = true
	return closeUnderlying(tw.w)
}

func tmplEscapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n\r") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func tmplToJSON(v any) (string, error) {
	b, err := jsonutil.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
