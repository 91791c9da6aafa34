// Package scan builds nuclei invocations and runs them over a batch of
// targets, streaming parsed results back to the caller.
package scan

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMode is returned for an unrecognized scan mode.
var ErrInvalidMode = errors.New("invalid mode")

// Mode selects how templates are chosen for a scan.
type Mode string

const (
	// ModeTechnology lets nuclei pick templates from detected technologies.
	ModeTechnology Mode = "technology"

	// ModeSevere runs only critical and high severity templates.
	ModeSevere Mode = "severe"

	// ModeManual passes every option through unchanged.
	ModeManual Mode = "manual"

	// ModeBudget runs the templates that fit a path budget.
	ModeBudget Mode = "budget"
)

// Modes lists every valid mode.
var Modes = []Mode{ModeTechnology, ModeSevere, ModeManual, ModeBudget}

// ParseMode validates s. Matching is case-insensitive.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Modes {
		if m == valid {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: [%s] (valid: technology, severe, manual, budget)", ErrInvalidMode, s)
}

// String returns the mode name.
func (m Mode) String() string {
	return string(m)
}

// Banner is the operator-facing line announcing the mode.
func (m Mode) Banner() string {
	switch m {
	case ModeTechnology:
		return "Running nuclei in TECHNOLOGY mode. Templates are limited to those matching detected technologies"
	case ModeSevere:
		return "Running nuclei in SEVERE mode. Only critical and high severity templates will be used. Tag setting will be IGNORED"
	case ModeManual:
		return "Running nuclei in MANUAL mode. Settings will be passed directly into nuclei with no modification"
	case ModeBudget:
		return "Running nuclei in BUDGET mode. Templates are constrained by the request budget"
	}
	return "Running nuclei in " + strings.ToUpper(string(m)) + " mode"
}
