// Package duration provides canonical time constants for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for all time-based configuration.
//
// Usage:
//
//	ctx, cancel := context.WithTimeout(ctx, duration.VersionProbe)
//	cmd.WaitDelay = duration.ProcessWaitDelay
//
// DO NOT use hardcoded time.Duration values like `30 * time.Second` anywhere.
// Instead, reference the appropriate constant from this package.
package duration

import "time"

// ============================================================================
// SCANNER PROCESS
// ============================================================================
//
// Bounds for the auxiliary nuclei invocations. Batch invocations are not
// bounded here; callers impose wall-clock limits through their context.
// ============================================================================

const (
	// VersionProbe is for `nuclei -version` (5s)
	VersionProbe = 5 * time.Second

	// TemplateUpdate is for `nuclei -update-templates` (5min)
	TemplateUpdate = 5 * time.Minute

	// ProcessWaitDelay bounds pipe draining after the process is killed (3s)
	ProcessWaitDelay = 3 * time.Second
)

// ============================================================================
// LOG THROTTLING
// ============================================================================

const (
	// WarnInterval is the minimum spacing between repeated warning lines (1s)
	WarnInterval = 1 * time.Second
)

// ============================================================================
// OBSERVABILITY
// ============================================================================

const (
	// MetricsReadTimeout is the metrics server read timeout (5s)
	MetricsReadTimeout = 5 * time.Second

	// MetricsWriteTimeout is the metrics server write timeout (10s)
	MetricsWriteTimeout = 10 * time.Second

	// TelemetryShutdown bounds span flushing at exit (5s)
	TelemetryShutdown = 5 * time.Second

	// TelemetryConnect bounds establishing the OTLP exporter (10s)
	TelemetryConnect = 10 * time.Second
)
