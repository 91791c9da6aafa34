package defaults

// Exit codes for the CLI.
const (
	ExitSuccess       = 0 // Clean exit, no findings
	ExitFindings      = 1 // At least one finding was emitted
	ExitUserError     = 2 // Invalid arguments or configuration
	ExitScannerError  = 3 // Scanner binary missing or unusable
	ExitInternalError = 4 // Unexpected internal error
)
