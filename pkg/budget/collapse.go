package budget

import (
	"strings"

	"github.com/waftester/nucleibudget/pkg/finding"
	"github.com/waftester/nucleibudget/pkg/nuclei"
)

// Reason names the first check a template failed.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonRaw          Reason = "raw-request"
	ReasonPath         Reason = "path-outside-budget"
	ReasonHeaders      Reason = "custom-headers"
	ReasonMethod       Reason = "non-get-method"
	ReasonMaxRedirects Reason = "max-redirects"
	ReasonRedirects    Reason = "redirects"
	ReasonCookieReuse  Reason = "cookie-reuse"
)

// Reasons lists every rejection reason in check order.
var Reasons = []Reason{
	ReasonRaw, ReasonPath, ReasonHeaders, ReasonMethod,
	ReasonMaxRedirects, ReasonRedirects, ReasonCookieReuse,
}

// Check reports whether t can be collapsed onto the allowed paths.
//
// Any raw request disqualifies the template. Otherwise every request must keep
// its paths inside allowed and must look like a plain GET: no headers, no
// method other than GET, and no max-redirects, redirects or cookie-reuse.
// Those three only disqualify when enabled: an explicit max-redirects of zero
// or an explicit false passes.
// A single failing request disqualifies the whole template. Templates without
// requests, or whose requests declare no path, pass the path check vacuously.
func Check(t *nuclei.Template, allowed map[string]struct{}) (bool, Reason) {
	if t.HasRaw() {
		return false, ReasonRaw
	}
	for _, r := range t.Requests {
		if reason := checkRequest(r, allowed); reason != ReasonNone {
			return false, reason
		}
	}
	return true, ReasonNone
}

func checkRequest(r nuclei.RequestSpec, allowed map[string]struct{}) Reason {
	for _, p := range r.Paths() {
		if _, ok := allowed[p]; !ok {
			return ReasonPath
		}
	}
	switch {
	case len(r.Headers) > 0:
		return ReasonHeaders
	case r.Method != "" && !strings.EqualFold(strings.TrimSpace(r.Method), "GET"):
		return ReasonMethod
	case r.MaxRedirects != nil && *r.MaxRedirects > 0:
		return ReasonMaxRedirects
	case r.Redirects != nil && *r.Redirects:
		return ReasonRedirects
	case r.CookieReuse != nil && *r.CookieReuse:
		return ReasonCookieReuse
	}
	return ReasonNone
}

// Collapsed is the outcome of filtering a corpus against a selection.
type Collapsed struct {
	// Templates are the collapsible templates in corpus order.
	Templates []*nuclei.Template

	// Stats tallies Templates by severity.
	Stats finding.SeverityStats

	// Rejected counts rejected templates by the first reason they failed.
	Rejected map[Reason]int
}

// Collapse filters templates against sel.
func Collapse(templates []*nuclei.Template, sel Selection) Collapsed {
	allowed := sel.Set()
	out := Collapsed{
		Stats:    finding.NewSeverityStats(),
		Rejected: make(map[Reason]int),
	}
	for _, t := range templates {
		ok, reason := Check(t, allowed)
		if !ok {
			out.Rejected[reason]++
			continue
		}
		out.Templates = append(out.Templates, t)
		out.Stats.Add(t.SeverityLevel())
	}
	return out
}

// Refs returns the file references of the collapsed templates. Templates
// parsed from memory fall back to their id.
func (c Collapsed) Refs() []string {
	refs := make([]string, 0, len(c.Templates))
	for _, t := range c.Templates {
		if t.Path != "" {
			refs = append(refs, t.Path)
		} else {
			refs = append(refs, t.ID)
		}
	}
	return refs
}
