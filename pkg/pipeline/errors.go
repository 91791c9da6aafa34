package pipeline

import "errors"

// Sentinel errors for pipeline failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrNotConfigured indicates ProcessBatch or Run was called before a
	// successful Configure.
	ErrNotConfigured = errors.New("pipeline: not configured")

	// ErrShutdown indicates the pipeline was used after Shutdown.
	ErrShutdown = errors.New("pipeline: shut down")
)
