package executor

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nodedesk/nodedesk/src/internal/environ"
)

// stderrTailLines bounds how much stderr is retained for diagnostics.
const stderrTailLines = 40

// Stream is a running subprocess whose output is consumed line by line while
// it executes. Install commands use this so progress can be forwarded live.
type Stream struct {
	lines chan string

	mu      sync.Mutex
	tail    []string // last stderr lines, for failure diagnostics
	killErr error
	timeout *TimeoutError

	start    time.Time
	done     chan error
	aborted  chan struct{}
	args     []string
	result   *Result
	err      error
	waitOnce sync.Once
}

// Start launches the tool and returns a Stream. Lines from stdout and stderr
// are interleaved on the Lines channel in the order they arrive; per-source
// ordering is preserved. The timeout covers the whole run and is enforced by
// a watchdog even while the caller is still draining lines.
func (e *Executor) Start(ctx context.Context, env *environ.Environment, args []string, timeout time.Duration) (*Stream, error) {
	cmd, err := e.buildCommand(ctx, env, args)
	if err != nil {
		return nil, err
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to capture stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to capture stderr: %w", err)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	s := &Stream{
		lines:   make(chan string, 64),
		start:   time.Now(),
		done:    make(chan error, 1),
		aborted: make(chan struct{}),
		args:    args,
	}

	log.Debug("streaming tool command", "env", env.ID, "args", strings.Join(args, " "))

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", environ.ToolName, err)
	}

	var scanners sync.WaitGroup
	scanners.Add(2)

	// Scanners feed an internal channel, not s.lines directly: if the
	// watchdog fires and the kill does not take, the scanners stay blocked
	// on the still-live process, and the consumer must not be left ranging
	// over a channel only they could close.
	raw := make(chan string, 64)

	go func() {
		defer scanners.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			raw <- decode(scanner.Bytes())
		}
	}()

	go func() {
		defer scanners.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			line := decode(scanner.Bytes())
			s.recordStderr(line)
			raw <- line
		}
	}()

	finished := make(chan struct{})
	go func() {
		scanners.Wait()
		close(raw)
		s.done <- cmd.Wait()
		close(finished)
	}()

	go s.forward(raw)

	// Watchdog: kill the subprocess on timeout or cancellation so a caller
	// ranging over Lines is never stuck on a hung install.
	go func() {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-finished:
		case <-ctx.Done():
			s.markTimedOut(cmd.Process.Kill(), timeout)
		case <-timer.C:
			s.markTimedOut(cmd.Process.Kill(), timeout)
		}
	}()

	return s, nil
}

// forward relays scanner output to the consumer until the subprocess is
// done or the watchdog aborts the stream. On abort it closes s.lines so
// the consumer's range exits, and keeps draining the scanners so they can
// finish whenever the process finally dies.
func (s *Stream) forward(raw <-chan string) {
	defer close(s.lines)
	abandon := func() {
		go func() {
			for range raw {
			}
		}()
	}
	for {
		select {
		case line, ok := <-raw:
			if !ok {
				return
			}
			select {
			case s.lines <- line:
			case <-s.aborted:
				abandon()
				return
			}
		case <-s.aborted:
			abandon()
			return
		}
	}
}

// Lines returns the channel of output lines. It is closed when the
// subprocess exits and all output has been delivered.
func (s *Stream) Lines() <-chan string {
	return s.lines
}

// Wait blocks until the subprocess finishes and returns its result, or the
// timeout/termination error when the watchdog fired. Safe to call more than
// once.
func (s *Stream) Wait() (*Result, error) {
	s.waitOnce.Do(func() {
		var waitErr error
		select {
		case waitErr = <-s.done:
		case <-s.aborted:
			s.mu.Lock()
			timeout, killErr := s.timeout, s.killErr
			s.mu.Unlock()
			if killErr != nil {
				// The process refused to die; do not block on it.
				go func() { <-s.done }()
				s.err = &TerminationError{Timeout: timeout, KillErr: killErr}
				return
			}
			waitErr = <-s.done
		}

		s.mu.Lock()
		timeout := s.timeout
		s.mu.Unlock()

		if timeout != nil {
			log.Warn("subprocess timed out and was killed", "args", s.args, "timeout", timeout.Timeout)
			s.err = timeout
			return
		}

		exitCode, err := exitStatus(waitErr)
		if err != nil {
			s.err = err
			return
		}
		s.result = &Result{
			ExitCode: exitCode,
			Stderr:   s.StderrTail(),
			Duration: time.Since(s.start),
		}
	})
	return s.result, s.err
}

// StderrTail returns the retained tail of stderr for diagnostics.
func (s *Stream) StderrTail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.tail, "\n")
}

func (s *Stream) recordStderr(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tail = append(s.tail, line)
	if len(s.tail) > stderrTailLines {
		s.tail = s.tail[len(s.tail)-stderrTailLines:]
	}
}

func (s *Stream) markTimedOut(killErr error, timeout time.Duration) {
	s.mu.Lock()
	s.timeout = &TimeoutError{Args: s.args, Timeout: timeout}
	if killErr != nil && !strings.Contains(killErr.Error(), "already finished") {
		log.Error("failed to kill timed-out subprocess", "args", s.args, "err", killErr)
		s.killErr = killErr
	}
	s.mu.Unlock()
	close(s.aborted)
}
