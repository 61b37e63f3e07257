package fnm

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nodedesk/nodedesk/src/internal/catalog"
	"github.com/nodedesk/nodedesk/src/internal/environ"
	"github.com/nodedesk/nodedesk/src/internal/executor"
)

// Default command budgets. Queries are quick; installs download archives.
const (
	DefaultQueryTimeout   = 30 * time.Second
	DefaultMutateTimeout  = 2 * time.Minute
	DefaultInstallTimeout = 15 * time.Minute
)

// Runner abstracts the process executor so the client (and everything above
// it) can be exercised against scripted output in tests.
type Runner interface {
	Run(ctx context.Context, env *environ.Environment, args []string, timeout time.Duration) (*executor.Result, error)
	Start(ctx context.Context, env *environ.Environment, args []string, timeout time.Duration) (LineStream, error)
}

// LineStream is the streaming half of Runner.
type LineStream interface {
	Lines() <-chan string
	Wait() (*executor.Result, error)
}

// ExecRunner adapts *executor.Executor to the Runner interface.
type ExecRunner struct {
	Exec *executor.Executor
}

func (r ExecRunner) Run(ctx context.Context, env *environ.Environment, args []string, timeout time.Duration) (*executor.Result, error) {
	return r.Exec.Run(ctx, env, args, timeout)
}

func (r ExecRunner) Start(ctx context.Context, env *environ.Environment, args []string, timeout time.Duration) (LineStream, error) {
	stream, err := r.Exec.Start(ctx, env, args, timeout)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// Timeouts configures the per-command-class budgets of a Client.
type Timeouts struct {
	Query   time.Duration
	Mutate  time.Duration
	Install time.Duration
}

// DefaultTimeouts returns the standard command budgets.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Query:   DefaultQueryTimeout,
		Mutate:  DefaultMutateTimeout,
		Install: DefaultInstallTimeout,
	}
}

// Client issues tool commands against one environment and returns typed
// results.
type Client struct {
	runner   Runner
	env      *environ.Environment
	timeouts Timeouts
}

// NewClient creates a Client for the given environment.
func NewClient(runner Runner, env *environ.Environment) *Client {
	return &Client{runner: runner, env: env, timeouts: DefaultTimeouts()}
}

// WithTimeouts returns a Client using the given command budgets.
func (c *Client) WithTimeouts(t Timeouts) *Client {
	clone := *c
	clone.timeouts = t
	return &clone
}

// Env returns the environment this client targets.
func (c *Client) Env() *environ.Environment {
	return c.env
}

// ListInstalled runs `fnm list` and returns the installed versions plus any
// skipped-line warnings.
func (c *Client) ListInstalled(ctx context.Context) ([]catalog.InstalledVersion, []string, error) {
	res, err := c.run(ctx, []string{"list"}, c.timeouts.Query)
	if err != nil {
		return nil, nil, err
	}

	versions, warnings := ParseInstalled(res.Stdout)
	for _, w := range warnings {
		log.Debug("skipped unparseable list line", "env", c.env.ID, "line", w)
	}
	return versions, warnings, nil
}

// ListRemote runs `fnm list-remote` and returns the installable versions in
// tool order.
func (c *Client) ListRemote(ctx context.Context) ([]catalog.RemoteVersion, error) {
	return c.listRemote(ctx, []string{"list-remote"})
}

// ListRemoteLTS narrows list-remote to LTS releases.
func (c *Client) ListRemoteLTS(ctx context.Context) ([]catalog.RemoteVersion, error) {
	return c.listRemote(ctx, []string{"list-remote", "--lts"})
}

func (c *Client) listRemote(ctx context.Context, args []string) ([]catalog.RemoteVersion, error) {
	res, err := c.run(ctx, args, c.timeouts.Query)
	if err != nil {
		return nil, err
	}

	versions, warnings := ParseRemote(res.Stdout)
	for _, w := range warnings {
		log.Debug("skipped unparseable list-remote line", "env", c.env.ID, "line", w)
	}
	return versions, nil
}

// Current runs `fnm current`. The bool is true when no default version is
// configured, which is distinct from the command failing.
func (c *Client) Current(ctx context.Context) (catalog.NodeVersion, bool, error) {
	res, err := c.run(ctx, []string{"current"}, c.timeouts.Query)
	if err != nil {
		return catalog.NodeVersion{}, false, err
	}
	return ParseCurrent(res.Stdout)
}

// Install runs `fnm install <version>`, forwarding each parsed progress
// event to onProgress as the subprocess emits it. onProgress may be nil.
func (c *Client) Install(ctx context.Context, version catalog.NodeVersion, onProgress func(Progress)) error {
	args := []string{"install", version.String()}

	stream, err := c.runner.Start(ctx, c.env, args, c.timeouts.Install)
	if err != nil {
		return err
	}

	for line := range stream.Lines() {
		if onProgress == nil {
			continue
		}
		if p, ok := ParseProgressLine(line); ok {
			onProgress(p)
		}
	}

	res, err := stream.Wait()
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &ProcessError{Args: args, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}

	if onProgress != nil {
		onProgress(Progress{Phase: PhaseComplete, HasPercent: true, Percent: 100})
	}
	return nil
}

// Uninstall runs `fnm uninstall <version>`.
func (c *Client) Uninstall(ctx context.Context, version catalog.NodeVersion) error {
	_, err := c.run(ctx, []string{"uninstall", version.String()}, c.timeouts.Mutate)
	return err
}

// Version runs `fnm --version` and returns the bare version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	res, err := c.run(ctx, []string{"--version"}, c.timeouts.Query)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(res.Stdout), "fnm")), nil
}

// SetDefault runs `fnm default <version>`.
func (c *Client) SetDefault(ctx context.Context, version catalog.NodeVersion) error {
	_, err := c.run(ctx, []string{"default", version.String()}, c.timeouts.Mutate)
	return err
}

// run executes a command and converts nonzero exits to *ProcessError.
func (c *Client) run(ctx context.Context, args []string, timeout time.Duration) (*executor.Result, error) {
	res, err := c.runner.Run(ctx, c.env, args, timeout)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, &ProcessError{Args: args, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return res, nil
}
