// Package diag carries structured diagnostics out of each pipeline stage.
//
// Stages return a Diagnostics value next to their outcome instead of logging
// directly, so callers and tests can assert on what happened. The CLI replays
// them through slog with Log.
package diag

import (
	"context"
	"log/slog"
	"strings"
)

// Stage names used across the pipeline.
const (
	StageCorpus    = "corpus"
	StageBudget    = "budget"
	StageUpdate    = "update"
	StageBinary    = "binary"
	StageScan      = "scan"
	StageParse     = "parse"
	StageCorrelate = "correlate"
	StageTeardown  = "teardown"
)

// Diagnostic is one note raised while processing a file, line or batch.
type Diagnostic struct {
	Level   slog.Level
	Stage   string
	Message string
	Attrs   []slog.Attr
}

// Diagnostics is an ordered list of notes.
type Diagnostics []Diagnostic

// Add appends a diagnostic.
func (d *Diagnostics) Add(level slog.Level, stage, msg string, attrs ...slog.Attr) {
	*d = append(*d, Diagnostic{Level: level, Stage: stage, Message: msg, Attrs: attrs})
}

// Debug appends a debug-level diagnostic.
func (d *Diagnostics) Debug(stage, msg string, attrs ...slog.Attr) {
	d.Add(slog.LevelDebug, stage, msg, attrs...)
}

// Info appends an info-level diagnostic.
func (d *Diagnostics) Info(stage, msg string, attrs ...slog.Attr) {
	d.Add(slog.LevelInfo, stage, msg, attrs...)
}

// Warn appends a warning-level diagnostic.
func (d *Diagnostics) Warn(stage, msg string, attrs ...slog.Attr) {
	d.Add(slog.LevelWarn, stage, msg, attrs...)
}

// Error appends an error-level diagnostic.
func (d *Diagnostics) Error(stage, msg string, attrs ...slog.Attr) {
	d.Add(slog.LevelError, stage, msg, attrs...)
}

// Merge appends every diagnostic of other.
func (d *Diagnostics) Merge(other Diagnostics) {
	*d = append(*d, other...)
}

// Count returns the number of diagnostics at exactly level.
func (d Diagnostics) Count(level slog.Level) int {
	n := 0
	for _, x := range d {
		if x.Level == level {
			n++
		}
	}
	return n
}

// AtLeast returns the diagnostics at level or above.
func (d Diagnostics) AtLeast(level slog.Level) Diagnostics {
	var out Diagnostics
	for _, x := range d {
		if x.Level >= level {
			out = append(out, x)
		}
	}
	return out
}

// ByStage returns the diagnostics raised by stage.
func (d Diagnostics) ByStage(stage string) Diagnostics {
	var out Diagnostics
	for _, x := range d {
		if x.Stage == stage {
			out = append(out, x)
		}
	}
	return out
}

// Contains reports whether any message contains substr.
func (d Diagnostics) Contains(substr string) bool {
	for _, x := range d {
		if strings.Contains(x.Message, substr) {
			return true
		}
	}
	return false
}

// Log replays the diagnostics through logger. A nil logger uses slog.Default().
func (d Diagnostics) Log(ctx context.Context, logger *slog.Logger) {
	logger = OrDefault(logger)
	for _, x := range d {
		attrs := make([]slog.Attr, 0, len(x.Attrs)+1)
		attrs = append(attrs, slog.String("stage", x.Stage))
		attrs = append(attrs, x.Attrs...)
		logger.LogAttrs(ctx, x.Level, x.Message, attrs...)
	}
}

// OrDefault returns l if non-nil, otherwise slog.Default().
func OrDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
