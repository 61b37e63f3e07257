package environ

import (
	"errors"
	"fmt"
)

// ErrToolNotFound is returned when the version-manager executable cannot be
// resolved for an environment. It is surfaced as a setup problem, never
// retried automatically.
type ErrToolNotFound struct {
	Env ID
}

func (e *ErrToolNotFound) Error() string {
	return fmt.Sprintf("version manager executable not found in environment %s", e.Env)
}

// IsToolNotFound checks if an error indicates a missing executable.
func IsToolNotFound(err error) bool {
	var target *ErrToolNotFound
	return errors.As(err, &target)
}

// ErrEnvironmentUnavailable is returned when a target environment cannot
// currently run commands, for example a stopped WSL distribution. Operations
// against such an environment are rejected at submission.
type ErrEnvironmentUnavailable struct {
	Env    ID
	Reason string
}

func (e *ErrEnvironmentUnavailable) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("environment %s is not available", e.Env)
	}
	return fmt.Sprintf("environment %s is not available: %s", e.Env, e.Reason)
}

// IsEnvironmentUnavailable checks if an error indicates an environment that
// cannot run commands right now.
func IsEnvironmentUnavailable(err error) bool {
	var target *ErrEnvironmentUnavailable
	return errors.As(err, &target)
}
