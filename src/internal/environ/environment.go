// Package environ enumerates the execution targets the version manager can
// run in: the native OS, plus any detected WSL distributions on Windows.
package environ

import (
	"fmt"
	goruntime "runtime"
)

// Kind distinguishes the native OS from a WSL distribution.
type Kind string

const (
	KindNative Kind = "native"
	KindWSL    Kind = "wsl"
)

// Availability reports whether an environment can currently run commands.
type Availability string

const (
	AvailabilityRunning    Availability = "running"
	AvailabilityNotRunning Availability = "not-running"
	AvailabilityUnknown    Availability = "unknown"
)

// ID uniquely identifies an environment for the lifetime of a session.
type ID string

// NativeID is the ID of the native OS environment, which always exists.
const NativeID ID = "native"

// WSLID builds the ID for a WSL distribution environment.
func WSLID(distro string) ID {
	return ID("wsl:" + distro)
}

// Environment is one execution target for the wrapped tool.
// Only Availability and ToolPath change after discovery; environments are
// never removed mid-session, only marked unavailable.
type Environment struct {
	ID           ID
	Label        string
	Kind         Kind
	Distro       string // WSL distribution name, empty for native
	Availability Availability
	ToolPath     string // resolved lazily, cached by the Registry
	ToolVersion  string // reported by the tool at resolution time, if known
}

// Native returns the environment for the local OS.
func Native() *Environment {
	return &Environment{
		ID:           NativeID,
		Label:        nativeLabel(),
		Kind:         KindNative,
		Availability: AvailabilityRunning,
	}
}

// WSL returns the environment for one WSL distribution.
func WSL(distro string, running bool) *Environment {
	avail := AvailabilityNotRunning
	if running {
		avail = AvailabilityRunning
	}
	return &Environment{
		ID:           WSLID(distro),
		Label:        fmt.Sprintf("WSL: %s", distro),
		Kind:         KindWSL,
		Distro:       distro,
		Availability: avail,
	}
}

// Running reports whether commands can be dispatched to the environment
// right now.
func (e *Environment) Running() bool {
	return e.Availability == AvailabilityRunning
}

func nativeLabel() string {
	switch goruntime.GOOS {
	case "darwin":
		return "macOS"
	case "windows":
		return "Windows"
	default:
		return "Linux"
	}
}
