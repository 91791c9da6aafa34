package nuclei

import (
	"errors"
	"fmt"
	"strings"

	"github.com/waftester/nucleibudget/pkg/finding"
	"github.com/waftester/nucleibudget/pkg/jsonutil"
)

// ErrMalformed wraps result lines that are not valid JSON records.
var ErrMalformed = errors.New("malformed result line")

// record is the subset of a nuclei JSON result line we read.
type record struct {
	TemplateID  string `json:"template-id"`
	MatcherName string `json:"matcher-name"`
	Host        string `json:"host"`
	MatchedAt   string `json:"matched-at"`
	Info        struct {
		Name     string `json:"name"`
		Severity string `json:"severity"`
	} `json:"info"`
}

// Result is a complete scanner result.
type Result struct {
	TemplateID string
	Name       string
	Severity   finding.Severity
	Host       string
	MatchedAt  string

	// NameFromInfo is set when matcher-name was absent and the template's
	// display name was used instead.
	NameFromInfo bool
}

// ParseResult decodes one scanner output line.
//
// The name prefers matcher-name and falls back to info.name. A line that is
// not a JSON object returns an error wrapping ErrMalformed; a record lacking
// template id, name, severity or host returns finding.ErrIncomplete.
func ParseResult(line []byte) (Result, error) {
	var rec record
	if err := jsonutil.Unmarshal(line, &rec); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	res := Result{
		TemplateID: strings.TrimSpace(rec.TemplateID),
		Name:       strings.TrimSpace(rec.MatcherName),
		Host:       strings.TrimSpace(rec.Host),
		MatchedAt:  strings.TrimSpace(rec.MatchedAt),
	}
	if res.Name == "" {
		res.Name = strings.TrimSpace(rec.Info.Name)
		res.NameFromInfo = true
	}

	sev := strings.TrimSpace(rec.Info.Severity)
	if res.TemplateID == "" || res.Name == "" || sev == "" || res.Host == "" {
		return res, fmt.Errorf("%w: template=%q name=%q severity=%q host=%q",
			finding.ErrIncomplete, res.TemplateID, res.Name, sev, res.Host)
	}
	res.Severity = finding.ParseSeverity(sev)
	return res, nil
}
