// Package finding provides the shared severity and finding types used by the
// budget planner, the result correlator and the output writers.
//
// A Finding is created only for scanner results that are complete and that
// correlate to a source event. Partial results never become findings.
package finding
