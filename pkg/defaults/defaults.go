// Package defaults provides canonical default values for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for runtime configuration defaults.
//
// Usage:
//
//	cfg.RateLimit = defaults.RateLimit
//	cfg.BatchSize = defaults.BatchSize
//
// DO NOT hardcode values like `Concurrency: 25` anywhere.
// Reference the appropriate constant from this package instead.
package defaults

import "fmt"

// Version is the current nucleibudget version
const Version = "0.3.0"

// ToolName is used for the service name in telemetry and in the user agent.
const ToolName = "nucleibudget"

// ============================================================================
// SCANNER SETTINGS
// ============================================================================
//
// These mirror the option defaults handed to the nuclei process.
// ============================================================================

const (
	// NucleiBinary is the executable looked up on PATH
	NucleiBinary = "nuclei"

	// NucleiVersion is the nuclei release the argument layout targets
	NucleiVersion = "2.7.7"

	// RateLimit is the maximum requests per second passed to nuclei (150)
	RateLimit = 150

	// Concurrency is the number of templates nuclei runs in parallel (25)
	Concurrency = 25

	// Mode is the operating mode used when none is configured
	Mode = "severe"

	// ExcludeTags is the default tag exclusion list
	ExcludeTags = "intrusive"

	// Budget is the default request-path budget for budget mode
	Budget = 1

	// SevereSeverity is the severity filter forced by severe mode
	SevereSeverity = "critical,high"
)

// ============================================================================
// BATCHING
// ============================================================================

const (
	// BatchSize is the maximum number of input events per scanner invocation (100)
	BatchSize = 100

	// ChannelSmall is for typical event buffers (100)
	ChannelSmall = 100
)

// ============================================================================
// FILES & DIRECTORIES
// ============================================================================

const (
	// TemplatesDirName is the directory under the tools dir holding the corpus
	TemplatesDirName = "nuclei-templates"

	// ToolsDirName is the per-user state directory
	ToolsDirName = ".nucleibudget"

	// ResumeFile is the state file nuclei leaves in its working directory
	ResumeFile = "resume.cfg"

	// TemplateListPrefix prefixes the materialized budget template list
	TemplateListPrefix = "nuclei-budget-"
)

// ============================================================================
// BUFFER SIZES
// ============================================================================

const (
	// BufferLarge is the initial scanner line buffer (64KB)
	BufferLarge = 64 * 1024

	// LineMax is the longest result line accepted from the scanner (2MB)
	LineMax = 2 * 1024 * 1024
)

// ============================================================================
// OBSERVABILITY
// ============================================================================

const (
	// MetricsPath is the HTTP path the Prometheus handler is mounted on
	MetricsPath = "/metrics"

	// MetricsNamespace prefixes every exported metric
	MetricsNamespace = "nucleibudget"

	// OTelEndpoint is the default OTLP gRPC collector address
	OTelEndpoint = "localhost:4317"
)

// UserAgent returns the nucleibudget user agent with context
func UserAgent(context string) string {
	if context == "" {
		return ToolName + "/" + Version
	}
	return fmt.Sprintf("%s/%s (%s)", ToolName, Version, context)
}
