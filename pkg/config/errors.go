package config

import "errors"

// Sentinel errors for configuration failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrInvalidConfig indicates the configuration is syntactically
	// or semantically invalid (bad YAML, unknown output format, etc.).
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrInvalidBudget indicates budget mode was selected with a budget
	// below one.
	ErrInvalidBudget = errors.New("config: budget must be a positive integer")

	// ErrMissingRequired indicates a required configuration field
	// was not provided.
	ErrMissingRequired = errors.New("config: missing required field")
)
