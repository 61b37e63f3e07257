package opqueue

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrUnknownOperation is returned when no operation has the given ID.
type ErrUnknownOperation struct {
	ID uuid.UUID
}

func (e *ErrUnknownOperation) Error() string {
	return fmt.Sprintf("unknown operation: %s", e.ID)
}

// IsUnknownOperation checks if an error indicates a missing operation.
func IsUnknownOperation(err error) bool {
	var target *ErrUnknownOperation
	return errors.As(err, &target)
}

// ErrNotCancelable is returned when canceling an operation that already
// started or finished. Only queued operations can be canceled.
type ErrNotCancelable struct {
	ID     uuid.UUID
	Status Status
}

func (e *ErrNotCancelable) Error() string {
	return fmt.Sprintf("operation %s is %s and cannot be canceled", e.ID, e.Status)
}

// IsNotCancelable checks if an error indicates a cancel that came too late.
func IsNotCancelable(err error) bool {
	var target *ErrNotCancelable
	return errors.As(err, &target)
}

// ErrUndoExpired is returned when the undo grace window has passed or a
// newer operation on the same pair invalidated the undo.
type ErrUndoExpired struct {
	ID uuid.UUID
}

func (e *ErrUndoExpired) Error() string {
	return fmt.Sprintf("undo window for operation %s has expired", e.ID)
}

// IsUndoExpired checks if an error indicates a lapsed undo window.
func IsUndoExpired(err error) bool {
	var target *ErrUndoExpired
	return errors.As(err, &target)
}

// ErrNotUndoable is returned when undoing an operation that never offered
// undo (wrong kind, failed, or still in flight).
type ErrNotUndoable struct {
	ID     uuid.UUID
	Status Status
}

func (e *ErrNotUndoable) Error() string {
	return fmt.Sprintf("operation %s (%s) cannot be undone", e.ID, e.Status)
}

// IsNotUndoable checks if an error indicates an undo on the wrong operation.
func IsNotUndoable(err error) bool {
	var target *ErrNotUndoable
	return errors.As(err, &target)
}

// ErrQueueClosed is returned for requests made after Stop.
var ErrQueueClosed = errors.New("operation queue is stopped")
