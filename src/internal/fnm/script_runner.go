package fnm

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nodedesk/nodedesk/src/internal/environ"
	"github.com/nodedesk/nodedesk/src/internal/executor"
)

// ScriptResponse is one canned tool invocation outcome served by a
// ScriptRunner.
type ScriptResponse struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error         // returned instead of a result when set
	Lines    []string      // streamed output for Start
	Delay    time.Duration // simulated execution time
}

// ScriptRunner is a Runner that serves scripted responses instead of
// spawning subprocesses. Tests across the orchestration stack use it to
// simulate the wrapped tool, the same way the runtime provider harness
// exercises providers without touching the network.
type ScriptRunner struct {
	mu        sync.Mutex
	responses map[string]ScriptResponse
	calls     [][]string

	// Handler, when set, is consulted before the canned responses. It lets a
	// test mutate simulated tool state (e.g. list output changing after an
	// install).
	Handler func(env *environ.Environment, args []string) (ScriptResponse, bool)
}

// NewScriptRunner creates an empty ScriptRunner.
func NewScriptRunner() *ScriptRunner {
	return &ScriptRunner{responses: make(map[string]ScriptResponse)}
}

// Set registers the response for an exact command line, e.g. "list" or
// "install v18.16.0".
func (r *ScriptRunner) Set(commandLine string, resp ScriptResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[commandLine] = resp
}

// Calls returns every command line issued so far.
func (r *ScriptRunner) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = append([]string(nil), c...)
	}
	return out
}

// CallCount returns how many times the exact command line was issued.
func (r *ScriptRunner) CallCount(commandLine string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if strings.Join(c, " ") == commandLine {
			n++
		}
	}
	return n
}

func (r *ScriptRunner) lookup(env *environ.Environment, args []string) ScriptResponse {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string(nil), args...))
	handler := r.Handler
	resp, ok := r.responses[strings.Join(args, " ")]
	if !ok {
		// Fall back to the verb alone so tests can script "list" once.
		resp, ok = r.responses[args[0]]
	}
	r.mu.Unlock()

	if handler != nil {
		if handled, found := handler(env, args); found {
			return handled
		}
	}
	if !ok {
		return ScriptResponse{ExitCode: 1, Stderr: "error: unknown command " + strings.Join(args, " ")}
	}
	return resp
}

// Run implements Runner.
func (r *ScriptRunner) Run(ctx context.Context, env *environ.Environment, args []string, timeout time.Duration) (*executor.Result, error) {
	resp := r.lookup(env, args)
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-ctx.Done():
			return nil, &executor.TimeoutError{Args: args, Timeout: timeout}
		}
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return &executor.Result{
		ExitCode: resp.ExitCode,
		Stdout:   resp.Stdout,
		Stderr:   resp.Stderr,
		Duration: resp.Delay,
	}, nil
}

// Start implements Runner.
func (r *ScriptRunner) Start(ctx context.Context, env *environ.Environment, args []string, timeout time.Duration) (LineStream, error) {
	resp := r.lookup(env, args)
	if resp.Err != nil {
		return nil, resp.Err
	}

	lines := make(chan string, len(resp.Lines)+1)
	stream := &scriptStream{lines: lines, resp: resp}

	go func() {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for _, line := range resp.Lines {
			lines <- line
		}
		close(lines)
	}()

	return stream, nil
}

type scriptStream struct {
	lines chan string
	resp  ScriptResponse
}

func (s *scriptStream) Lines() <-chan string {
	return s.lines
}

func (s *scriptStream) Wait() (*executor.Result, error) {
	for range s.lines {
		// Drain whatever the caller did not consume.
	}
	return &executor.Result{
		ExitCode: s.resp.ExitCode,
		Stderr:   s.resp.Stderr,
		Duration: s.resp.Delay,
	}, nil
}
