// Package nuclei models the parts of the nuclei template and result formats
// this tool reasons about: request shapes for budget planning, and the JSON
// result lines the scanner emits.
package nuclei

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/waftester/nucleibudget/pkg/finding"
	"gopkg.in/yaml.v3"
)

// ErrMissingID is returned for templates without an id.
var ErrMissingID = errors.New("template missing required field: id")

// Template represents a nuclei template
type Template struct {
	ID   string
	Info Info

	// Requests holds the HTTP request blocks: `requests:` (nuclei v2) first,
	// then `http:` (nuclei v3).
	Requests []RequestSpec

	// Path is the file the template was loaded from.
	Path string
}

// Info contains template metadata
type Info struct {
	Name     string `yaml:"name"`
	Author   string `yaml:"author,omitempty"`
	Severity string `yaml:"severity"`
	Tags     string `yaml:"tags,omitempty"`
}

// RequestSpec is one HTTP request definition within a template.
// Pointer fields are nil when the template does not declare them.
type RequestSpec struct {
	Raw          []string       `yaml:"raw,omitempty"`
	Path         []string       `yaml:"path,omitempty"`
	Method       string         `yaml:"method,omitempty"`
	Headers      map[string]any `yaml:"headers,omitempty"`
	MaxRedirects *int           `yaml:"max-redirects,omitempty"`
	Redirects    *bool          `yaml:"redirects,omitempty"`
	CookieReuse  *bool          `yaml:"cookie-reuse,omitempty"`
}

// IsRaw reports whether the request is a raw block, opaque to path analysis.
func (r RequestSpec) IsRaw() bool {
	return len(r.Raw) > 0
}

// Paths returns the declared paths normalized, with empty entries dropped.
func (r RequestSpec) Paths() []string {
	out := make([]string, 0, len(r.Path))
	for _, p := range r.Path {
		if p = NormalizePath(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NormalizePath is the canonical form used as a path-index key.
func NormalizePath(p string) string {
	return strings.TrimSpace(p)
}

// SeverityLevel returns the normalized template severity.
func (t *Template) SeverityLevel() finding.Severity {
	return finding.ParseSeverity(t.Info.Severity)
}

// HasRaw reports whether any request block is raw.
func (t *Template) HasRaw() bool {
	for _, r := range t.Requests {
		if r.IsRaw() {
			return true
		}
	}
	return false
}

// document is the on-disk shape; both request keys are collected.
type document struct {
	ID       string        `yaml:"id"`
	Info     Info          `yaml:"info"`
	Requests []RequestSpec `yaml:"requests,omitempty"`
	HTTP     []RequestSpec `yaml:"http,omitempty"`
}

// LoadTemplate loads a template from a file
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	tmpl, err := ParseTemplate(data)
	if err != nil {
		return nil, err
	}
	tmpl.Path = path
	return tmpl, nil
}

// ParseTemplate parses a template from YAML data
func ParseTemplate(data []byte) (*Template, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	if strings.TrimSpace(doc.ID) == "" {
		return nil, ErrMissingID
	}

	reqs := make([]RequestSpec, 0, len(doc.Requests)+len(doc.HTTP))
	reqs = append(reqs, doc.Requests...)
	reqs = append(reqs, doc.HTTP...)

	return &Template{
		ID:       doc.ID,
		Info:     doc.Info,
		Requests: reqs,
	}, nil
}
