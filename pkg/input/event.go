package input

import (
	"net"
	"net/url"
	"strings"
)

// Kind tags the type of an input event.
type Kind string

const (
	// KindURL is a URL-bearing record.
	KindURL Kind = "URL"

	// KindTechnology is a technology-detection record.
	KindTechnology Kind = "TECHNOLOGY"
)

// Event is one scan target handed to the pipeline.
// Data is the exact line written to the scanner's stdin.
type Event struct {
	Host string `json:"host"`
	Data string `json:"data"`
	Kind Kind   `json:"type"`

	// Technology is set on KindTechnology events only.
	Technology string `json:"technology,omitempty"`
}

// String returns the event data, matching what the scanner receives.
func (e Event) String() string {
	return e.Data
}

// NewURLEvent builds a URL event, deriving Host from the target.
func NewURLEvent(target string) Event {
	target = strings.TrimSpace(target)
	return Event{Host: Hostname(target), Data: target, Kind: KindURL}
}

// NewTechnologyEvent builds a technology event for host.
// The scanner is fed the host itself; technology only labels the event.
func NewTechnologyEvent(host, technology string) Event {
	host = strings.TrimSpace(host)
	return Event{
		Host:       Hostname(host),
		Data:       host,
		Kind:       KindTechnology,
		Technology: strings.TrimSpace(technology),
	}
}

// Hostname extracts the bare host from a URL, host:port or host/path string.
// Returns "" when nothing host-like is present.
func Hostname(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "//" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	h := u.Host
	if host, _, err := net.SplitHostPort(h); err == nil {
		h = host
	}
	return strings.ToLower(strings.Trim(h, "[]"))
}
