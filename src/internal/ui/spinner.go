package ui

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner marks a long tool invocation: fnm can sit for seconds on a
// network call, so fetches show a spinner that resolves into one of the
// symbol lines used by the output helpers.
type Spinner struct {
	spinner *spinner.Spinner
}

// NewSpinner creates a stopped spinner with an initial message.
func NewSpinner(message string) *Spinner {
	s := spinner.New(
		spinner.CharSets[14], // dots style
		100*time.Millisecond,
		spinner.WithColor("cyan"),
		spinner.WithSuffix(" "+message),
	)
	return &Spinner{spinner: s}
}

// Start starts the spinner
func (s *Spinner) Start() {
	s.spinner.Start()
}

// Stop stops the spinner without printing a resolution line
func (s *Spinner) Stop() {
	s.spinner.Stop()
}

// UpdateMessage swaps the message while the spinner keeps running, for
// multi-stage work such as fetch-then-parse.
func (s *Spinner) UpdateMessage(message string) {
	s.spinner.Suffix = " " + message
}

// Success stops the spinner and resolves it into a success line
func (s *Spinner) Success(format string, args ...interface{}) {
	s.spinner.Stop()
	_, _ = successColor.Printf("%s %s\n", successSymbol, fmt.Sprintf(format, args...))
}

// Error stops the spinner and resolves it into an error line
func (s *Spinner) Error(format string, args ...interface{}) {
	s.spinner.Stop()
	_, _ = errorColor.Printf("%s %s\n", errorSymbol, fmt.Sprintf(format, args...))
}

// Warning stops the spinner and resolves it into a warning line, for work
// that degraded to cached data instead of failing outright.
func (s *Spinner) Warning(format string, args ...interface{}) {
	s.spinner.Stop()
	_, _ = warningColor.Printf("%s %s\n", warningSymbol, fmt.Sprintf(format, args...))
}

// WithSpinner runs fn under a spinner and resolves it from fn's error.
func WithSpinner(message string, fn func() error) error {
	s := NewSpinner(message)
	s.Start()

	if err := fn(); err != nil {
		s.Error("%s failed", message)
		return err
	}

	s.Success("%s", message)
	return nil
}
