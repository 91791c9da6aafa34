package scan

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when Run is called on a controller that is running.
var ErrBusy = errors.New("scan: controller already running")

// ExitError describes a scanner process that ended unsuccessfully.
// It is reported through Summary.Err, never returned from Run.
type ExitError struct {
	Binary string
	Code   int // -1 when the process did not exit normally
	Err    error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %v", e.Binary, e.Code, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
