// Package opqueue admits, schedules, and tracks the mutating operations
// issued against the wrapped tool. A single loop goroutine owns all queue
// state; workers execute subprocesses and report back over channels, never
// touching the state directly.
package opqueue

import (
	"time"

	"github.com/google/uuid"

	"github.com/nodedesk/nodedesk/src/internal/catalog"
	"github.com/nodedesk/nodedesk/src/internal/environ"
	"github.com/nodedesk/nodedesk/src/internal/fnm"
)

// Kind identifies what an operation does.
type Kind string

const (
	KindInstall    Kind = "install"
	KindUninstall  Kind = "uninstall"
	KindSetDefault Kind = "set-default"
)

// Status is an operation's position in its lifecycle.
//
//	Queued → Running → Succeeded | Failed
//	Queued → Canceled                      (user cancel before start)
//	Succeeded → UndoAvailable → Undone | Expired   (uninstalls only)
type Status string

const (
	StatusQueued        Status = "queued"
	StatusRunning       Status = "running"
	StatusSucceeded     Status = "succeeded"
	StatusFailed        Status = "failed"
	StatusCanceled      Status = "canceled"
	StatusUndoAvailable Status = "undo-available"
	StatusUndone        Status = "undone"
	StatusExpired       Status = "expired"
)

// Terminal reports whether no further transitions can happen.
func (s Status) Terminal() bool {
	switch s {
	case StatusFailed, StatusCanceled, StatusUndone, StatusExpired, StatusSucceeded:
		return true
	}
	return false
}

// Operation is one unit of mutating work against an environment. Values
// handed out by the queue are snapshots; the loop owns the live record.
type Operation struct {
	ID      uuid.UUID
	Kind    Kind
	Env     environ.ID
	Version catalog.NodeVersion

	Status     Status
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time

	// Err and Detail are set for StatusFailed: a short cause and the raw
	// output tail for diagnostics.
	Err    string
	Detail string

	Progress fnm.Progress

	// UndoDeadline bounds the grace window of an undoable uninstall.
	UndoDeadline time.Time

	// UndoOf links a compensating install back to the uninstall it reverts.
	UndoOf uuid.UUID
}

func (o *Operation) pair() pairKey {
	return pairKey{env: o.Env, version: o.Version}
}

// pairKey identifies the serialization domain: at most one operation runs
// per (environment, version) at a time.
type pairKey struct {
	env     environ.ID
	version catalog.NodeVersion
}

// EventType distinguishes lifecycle transitions from progress updates.
type EventType string

const (
	EventStatus   EventType = "status"
	EventProgress EventType = "progress"
)

// Event is one observable queue change, carrying a snapshot of the
// operation after the change. Events for one operation are delivered in
// the order they occurred.
type Event struct {
	Type EventType
	Op   Operation
}
