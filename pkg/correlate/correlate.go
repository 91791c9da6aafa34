// Package correlate maps scanner results back to the batch input that
// produced them.
package correlate

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/waftester/nucleibudget/pkg/diag"
	"github.com/waftester/nucleibudget/pkg/duration"
	"github.com/waftester/nucleibudget/pkg/input"
)

// MsgUncorrelated is recorded when no batch event matches a result.
const MsgUncorrelated = "Failed to correlate nuclei result with event"

// Correlate returns the first event, in batch order, whose data contains
// host. Only when no event does is the hostname in host compared against each
// event's host, again first match wins. An empty host never matches.
func Correlate(events []input.Event, host string) (input.Event, bool) {
	host = strings.TrimSpace(host)
	if host == "" {
		return input.Event{}, false
	}
	for _, ev := range events {
		if strings.Contains(ev.Data, host) {
			return ev, true
		}
	}
	if name := input.Hostname(host); name != "" {
		for _, ev := range events {
			if name == ev.Host {
				return ev, true
			}
		}
	}
	return input.Event{}, false
}

// Correlator wraps Correlate with diagnostics and throttled warning logs.
// Every miss is recorded as a diagnostic; log lines are rate limited so a
// noisy batch cannot flood the terminal.
type Correlator struct {
	logger  *slog.Logger
	limiter *rate.Limiter

	misses     atomic.Int64
	suppressed atomic.Int64
}

// New returns a Correlator. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Correlator {
	return &Correlator{
		logger:  diag.OrDefault(logger),
		limiter: rate.NewLimiter(rate.Every(duration.WarnInterval), 5),
	}
}

// Resolve correlates host against events. On a miss it records a warning in d
// and logs it unless the log limiter is exhausted.
func (c *Correlator) Resolve(ctx context.Context, events []input.Event, host, templateID string, d *diag.Diagnostics) (input.Event, bool) {
	if ev, ok := Correlate(events, host); ok {
		return ev, true
	}

	c.misses.Add(1)
	attrs := []slog.Attr{
		slog.String("host", host),
		slog.String("template", templateID),
		slog.Int("batch_size", len(events)),
	}
	if d != nil {
		d.Warn(diag.StageCorrelate, MsgUncorrelated, attrs...)
	}
	if c.limiter.Allow() {
		if n := c.suppressed.Swap(0); n > 0 {
			attrs = append(attrs, slog.Int64("suppressed", n))
		}
		c.logger.LogAttrs(ctx, slog.LevelWarn, MsgUncorrelated, attrs...)
	} else {
		c.suppressed.Add(1)
	}
	return input.Event{}, false
}

// Misses returns the number of results that could not be correlated.
func (c *Correlator) Misses() int64 {
	return c.misses.Load()
}
