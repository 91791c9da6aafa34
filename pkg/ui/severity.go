package ui

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/waftester/nucleibudget/pkg/finding"
)

var titleCaser = cases.Title(language.English)

// SeverityLabel returns the title-cased severity name, e.g. "Critical".
func SeverityLabel(sev finding.Severity) string {
	return titleCaser.String(string(finding.ParseSeverity(string(sev))))
}

// SeverityBreakdown renders per-severity template counts in the fixed order
// critical, high, medium, low, info, unknown:
//
//	Template Severity: Critical [1] High [0] Medium [2] Low [0] Info [5] Unknown [0]
func SeverityBreakdown(stats finding.SeverityStats) string {
	var b strings.Builder
	b.WriteString("Template Severity:")
	for _, sev := range finding.Severities {
		fmt.Fprintf(&b, " %s [%d]", SeverityLabel(sev), stats[sev])
	}
	return b.String()
}

// SeverityBadge renders the styled upper-case severity tag.
func SeverityBadge(sev finding.Severity) string {
	return SeverityStyle(sev).Render(finding.ParseSeverity(string(sev)).Upper())
}
