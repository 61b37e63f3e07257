package fnm

import (
	"errors"
	"fmt"
	"strings"
)

// ParseError reports tool output that did not match an expected shape. The
// offending line is retained for diagnostics; nothing is ever guessed from a
// malformed record.
type ParseError struct {
	Shape string // which command's output failed to parse
	Line  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unexpected %s output: %q", e.Shape, e.Line)
}

// IsParseError checks if an error indicates unparseable tool output.
func IsParseError(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

// ProcessError reports a tool invocation that exited nonzero. Cause is a
// short human-readable summary; Stderr keeps the raw tail for diagnostics.
type ProcessError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	cause := e.Cause()
	if cause == "" {
		return fmt.Sprintf("%s exited with code %d", strings.Join(e.Args, " "), e.ExitCode)
	}
	return fmt.Sprintf("%s failed: %s", strings.Join(e.Args, " "), cause)
}

// Cause reduces stderr to a short, single-line explanation. The first
// non-empty stderr line usually carries the tool's own error message.
func (e *ProcessError) Cause() string {
	for _, line := range strings.Split(e.Stderr, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

// IsProcessError checks if an error indicates a nonzero tool exit.
func IsProcessError(err error) bool {
	var target *ProcessError
	return errors.As(err, &target)
}
