package finding

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/waftester/nucleibudget/pkg/input"
)

// Finding is one correlated, normalized vulnerability result.
type Finding struct {
	ID          string      `json:"id"`
	Severity    string      `json:"severity"` // upper-case category, e.g. "HIGH"
	TemplateID  string      `json:"template_id"`
	Name        string      `json:"name"`
	Host        string      `json:"host"` // host of the source event
	URL         string      `json:"url"`  // raw matched host/URL from the scanner
	Description string      `json:"description"`
	Source      input.Event `json:"source"`
	Timestamp   time.Time   `json:"timestamp"`
}

// New builds a Finding tied to source.
// matched is the host or URL the scanner reported.
func New(sev Severity, templateID, name, matched string, source input.Event) Finding {
	return Finding{
		ID:          uuid.NewString(),
		Severity:    ParseSeverity(string(sev)).Upper(),
		TemplateID:  templateID,
		Name:        name,
		Host:        source.Host,
		URL:         matched,
		Description: Describe(templateID, name),
		Source:      source,
		Timestamp:   time.Now().UTC(),
	}
}

// Describe composes the finding description from template id and result name.
func Describe(templateID, name string) string {
	return fmt.Sprintf("template: %s, name: %s", templateID, name)
}

// Level returns the finding severity as a Severity value.
func (f Finding) Level() Severity {
	return ParseSeverity(f.Severity)
}
