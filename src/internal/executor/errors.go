package executor

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeoutError reports a subprocess that exceeded its allotted time and was
// killed.
type TimeoutError struct {
	Args    []string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %q timed out after %s", strings.Join(e.Args, " "), e.Timeout)
}

// IsTimeout checks if an error indicates a timed-out subprocess, including
// one that also failed to die.
func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

// TerminationError reports a timed-out subprocess that could not be killed.
// The process may still be running and consuming resources.
type TerminationError struct {
	Timeout *TimeoutError
	KillErr error
}

func (e *TerminationError) Error() string {
	return fmt.Sprintf("%s; termination failed: %v", e.Timeout.Error(), e.KillErr)
}

// Unwrap exposes the underlying timeout so IsTimeout matches too.
func (e *TerminationError) Unwrap() error {
	return e.Timeout
}

// IsTerminationFailed checks if an error indicates a kill that did not take.
func IsTerminationFailed(err error) bool {
	var target *TerminationError
	return errors.As(err, &target)
}
