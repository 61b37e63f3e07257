// Package executor spawns the version-manager tool as a subprocess, captures
// its output, and enforces timeout and termination policy. It never parses
// output; that belongs to the fnm package.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/nodedesk/nodedesk/src/internal/environ"
)

// DefaultTimeout bounds commands that give no explicit budget.
const DefaultTimeout = 30 * time.Second

// Result is the raw outcome of one subprocess invocation. Output bytes are
// decoded permissively: invalid sequences are replaced, never fatal.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Executor runs tool commands in a target environment. WSL commands are
// wrapped in a login shell so the distro user's profile (PATH, tool init) is
// honored.
type Executor struct {
	registry *environ.Registry
	extraEnv []string // appended to native commands, e.g. mirror overrides
}

// New creates an Executor resolving executables through the given registry.
func New(registry *environ.Registry) *Executor {
	return &Executor{registry: registry}
}

// WithExtraEnv returns an Executor that appends the given KEY=VALUE entries
// to native tool invocations.
func (e *Executor) WithExtraEnv(env []string) *Executor {
	clone := *e
	clone.extraEnv = append([]string(nil), env...)
	return &clone
}

// Run executes the tool with the given arguments and waits for completion.
// The timeout is always enforced; on expiry the subprocess is killed and a
// *TimeoutError returned. A failed kill surfaces as *TerminationError so the
// caller knows the process may still be consuming resources.
func (e *Executor) Run(ctx context.Context, env *environ.Environment, args []string, timeout time.Duration) (*Result, error) {
	cmd, err := e.buildCommand(ctx, env, args)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	log.Debug("running tool command", "env", env.ID, "args", strings.Join(args, " "), "timeout", timeout)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", environ.ToolName, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		return nil, e.terminateCanceled(cmd, done, ctx.Err(), args)
	case <-timer.C:
		return nil, e.terminate(cmd, done, &TimeoutError{Args: args, Timeout: timeout})
	case waitErr := <-done:
		exitCode, err := exitStatus(waitErr)
		if err != nil {
			return nil, err
		}
		res := &Result{
			ExitCode: exitCode,
			Stdout:   decode(stdout.Bytes()),
			Stderr:   decode(stderr.Bytes()),
			Duration: time.Since(start),
		}
		log.Debug("tool command finished", "env", env.ID, "exit", res.ExitCode, "duration", res.Duration)
		return res, nil
	}
}

// terminate kills a timed-out subprocess. The wait goroutine is always
// drained so no zombie is left behind from the caller's perspective.
func (e *Executor) terminate(cmd *exec.Cmd, done chan error, timeoutErr *TimeoutError) error {
	killErr := cmd.Process.Kill()
	if killErr != nil && !strings.Contains(killErr.Error(), "already finished") {
		log.Error("failed to kill timed-out subprocess", "pid", cmd.Process.Pid, "err", killErr)
		// Drain in the background; the process may never die.
		go func() { <-done }()
		return &TerminationError{Timeout: timeoutErr, KillErr: killErr}
	}
	<-done
	log.Warn("subprocess timed out and was killed", "args", timeoutErr.Args, "timeout", timeoutErr.Timeout)
	return timeoutErr
}

// terminateCanceled kills a subprocess whose caller context ended before the
// timeout. The returned error carries the context's cause so cancellation is
// distinguishable from a timeout.
func (e *Executor) terminateCanceled(cmd *exec.Cmd, done chan error, ctxErr error, args []string) error {
	killErr := cmd.Process.Kill()
	if killErr != nil && !strings.Contains(killErr.Error(), "already finished") {
		log.Error("failed to kill canceled subprocess", "pid", cmd.Process.Pid, "err", killErr)
		// Drain in the background; the process may never die.
		go func() { <-done }()
		return fmt.Errorf("%s canceled: %w (kill failed: %v)", environ.ToolName, ctxErr, killErr)
	}
	<-done
	log.Warn("subprocess canceled", "args", args, "cause", ctxErr)
	return fmt.Errorf("%s canceled: %w", environ.ToolName, ctxErr)
}

// buildCommand assembles the platform-specific invocation for an environment.
func (e *Executor) buildCommand(ctx context.Context, env *environ.Environment, args []string) (*exec.Cmd, error) {
	if !env.Running() {
		return nil, &environ.ErrEnvironmentUnavailable{Env: env.ID, Reason: "environment is not running"}
	}

	toolPath, err := e.registry.ResolveTool(ctx, env.ID)
	if err != nil {
		return nil, err
	}

	var cmd *exec.Cmd
	switch env.Kind {
	case environ.KindWSL:
		// Login shell so the user's profile-configured PATH and tool init
		// apply inside the distro.
		shellCmd := toolPath + " " + strings.Join(args, " ")
		cmd = exec.Command("wsl.exe", "-d", env.Distro, "--", "bash", "-lc", shellCmd)
	default:
		cmd = exec.Command(toolPath, args...)
		if len(e.extraEnv) > 0 {
			cmd.Env = append(os.Environ(), e.extraEnv...)
		}
	}

	hideWindow(cmd)
	return cmd, nil
}

// exitStatus extracts the exit code from a Wait error. A nonzero exit is a
// valid result at this layer, not an error.
func exitStatus(waitErr error) (int, error) {
	if waitErr == nil {
		return 0, nil
	}
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return 0, fmt.Errorf("subprocess wait failed: %w", waitErr)
}

// decode converts raw output bytes to a string, replacing invalid sequences.
func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
