package health

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateService is returned when registering a service id
	// that is already registered.
	ErrDuplicateService = errors.New("service already registered")

	// ErrCheckTimeout marks a check that exceeded its per-check timeout.
	ErrCheckTimeout = errors.New("health check timed out")

	errEmptyServiceID = errors.New("service id is required")
	errNilCheckFunc   = errors.New("check function is required")
)

// CheckError wraps a failure raised by a check function (an error it
// returned indirectly via panic, or a timeout).
type CheckError struct {
	ServiceID string
	Err       error
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("health check for %q failed: %v", e.ServiceID, e.Err)
}

func (e *CheckError) Unwrap() error {
	return e.Err
}
