package finding

import "strings"

// Severity represents the severity level of a template or finding.
// Values are lowercase, matching the nuclei template schema.
type Severity string

const (
	// Critical represents immediate system compromise (RCE, auth bypass).
	Critical Severity = "critical"

	// High represents significant impact requiring prompt fix (SQLi, stored XSS).
	High Severity = "high"

	// Medium represents moderate impact (reflected XSS, CSRF).
	Medium Severity = "medium"

	// Low represents limited impact (verbose errors, minor info leak).
	Low Severity = "low"

	// Info represents informational findings with no direct security impact.
	Info Severity = "info"

	// Unknown is used for missing or unrecognized severities.
	Unknown Severity = "unknown"
)

// Severities lists every level from most to least severe.
var Severities = []Severity{Critical, High, Medium, Low, Info, Unknown}

// ParseSeverity normalizes s to one of the six levels.
// Anything unrecognized maps to Unknown.
func ParseSeverity(s string) Severity {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if sev.IsValid() {
		return sev
	}
	return Unknown
}

// IsValid reports whether s is a recognized severity level.
func (s Severity) IsValid() bool {
	switch s {
	case Critical, High, Medium, Low, Info, Unknown:
		return true
	}
	return false
}

// Score returns a numeric score for sorting and comparison.
// Critical=5, High=4, Medium=3, Low=2, Info=1, Unknown=0.
func (s Severity) Score() int {
	switch s {
	case Critical:
		return 5
	case High:
		return 4
	case Medium:
		return 3
	case Low:
		return 2
	case Info:
		return 1
	default:
		return 0
	}
}

// String returns the severity as a string.
func (s Severity) String() string {
	return string(s)
}

// Upper returns the upper-case category emitted on findings.
func (s Severity) Upper() string {
	return strings.ToUpper(string(s))
}

// SeverityStats is a histogram of template or finding counts per severity.
type SeverityStats map[Severity]int

// NewSeverityStats returns a histogram with every level present at zero.
func NewSeverityStats() SeverityStats {
	st := make(SeverityStats, len(Severities))
	for _, s := range Severities {
		st[s] = 0
	}
	return st
}

// Add tallies one entry of severity s, normalizing it first.
func (st SeverityStats) Add(s Severity) {
	st[ParseSeverity(string(s))]++
}

// Total returns the sum over all levels.
func (st SeverityStats) Total() int {
	n := 0
	for _, c := range st {
		n += c
	}
	return n
}
