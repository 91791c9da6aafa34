package finding

import "errors"

// Sentinel errors for finding construction.
// Callers should use errors.Is() to check for these.
var (
	// ErrIncomplete indicates a scanner result lacked template id, name,
	// severity or host. Such results are dropped, never reported.
	ErrIncomplete = errors.New("finding: incomplete result")

	// ErrUncorrelated indicates no event in the batch produced the result.
	ErrUncorrelated = errors.New("finding: result not correlated to an event")
)
