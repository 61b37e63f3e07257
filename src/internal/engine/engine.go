// Package engine assembles the orchestration core behind one facade: it
// owns environment discovery, the catalog, the operation queue, and release
// metadata, and exposes snapshot queries plus an event stream. Front-ends
// talk to the Engine and nothing below it.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/nodedesk/nodedesk/src/internal/catalog"
	"github.com/nodedesk/nodedesk/src/internal/environ"
	"github.com/nodedesk/nodedesk/src/internal/executor"
	"github.com/nodedesk/nodedesk/src/internal/fnm"
	"github.com/nodedesk/nodedesk/src/internal/manifest"
	"github.com/nodedesk/nodedesk/src/internal/opqueue"
	"github.com/nodedesk/nodedesk/src/internal/settings"
	"github.com/nodedesk/nodedesk/src/internal/updates"
)

// EnvironmentState pairs an environment with its cached installed set.
type EnvironmentState struct {
	Env       *environ.Environment
	Installed catalog.InstalledSet
	HasData   bool
}

// Snapshot is a coherent point-in-time view for front-ends.
type Snapshot struct {
	Environments []EnvironmentState
	Remote       catalog.RemoteSet
	HasRemote    bool
	Operations   []opqueue.Operation
	TakenAt      time.Time
}

// Engine is the orchestration facade.
type Engine struct {
	cfg      *settings.Settings
	registry *environ.Registry
	exec     *executor.Executor
	catalog  *catalog.Catalog
	queue    *opqueue.Queue
	source   manifest.Source

	mu       sync.Mutex
	manifest *manifest.Manifest

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wires an Engine from settings. Call Start before use.
func New(cfg *settings.Settings) *Engine {
	registry := environ.NewRegistry(cfg.ToolPath)
	exec := executor.New(registry)
	cat := catalog.New()

	var source manifest.Source
	if cfg.ManifestFile != "" {
		source = manifest.NewFileSource(cfg.ManifestFile)
	} else {
		source, _ = manifest.NewLayeredSource(manifest.Options{
			IndexURL:    cfg.ManifestIndexURL,
			ScheduleURL: cfg.ManifestScheduleURL,
			CacheDir:    settings.DefaultPaths().Cache,
			CacheTTL:    cfg.ManifestTTL,
		})
	}

	e := &Engine{
		cfg:      cfg,
		registry: registry,
		exec:     exec,
		catalog:  cat,
		source:   source,
	}
	e.queue = opqueue.New(opqueue.Config{
		EnvConcurrency: cfg.EnvConcurrency,
		UndoGrace:      cfg.UndoGraceWindow,
	}, clientSource{e}, registry, cat)
	return e
}

// clientSource adapts the Engine to opqueue.ClientSource.
type clientSource struct {
	e *Engine
}

func (s clientSource) ClientFor(ctx context.Context, env environ.ID) (opqueue.Client, error) {
	return s.e.Client(ctx, env)
}

// Start discovers environments, launches the queue, and begins background
// refresh. It blocks only for discovery, never for subprocess work.
func (e *Engine) Start(ctx context.Context) {
	e.ctx, e.cancel = context.WithCancel(context.Background())

	e.registry.Discover(ctx)
	e.queue.Start()

	e.wg.Add(2)
	go e.watchQueue()
	go e.refreshLoop()
}

// Stop shuts down the queue and background work.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.queue.Stop()
	e.wg.Wait()
}

// Client builds a tool client for the environment, resolving the executable
// first. Errors: environ.ErrToolNotFound, environ.ErrEnvironmentUnavailable.
func (e *Engine) Client(ctx context.Context, id environ.ID) (*fnm.Client, error) {
	if _, err := e.registry.ResolveTool(ctx, id); err != nil {
		return nil, err
	}
	env, ok := e.registry.Get(id)
	if !ok {
		return nil, &environ.ErrEnvironmentUnavailable{Env: id, Reason: "unknown environment"}
	}
	return fnm.NewClient(fnm.ExecRunner{Exec: e.exec}, env), nil
}

// Registry exposes environment discovery state.
func (e *Engine) Registry() *environ.Registry {
	return e.registry
}

// Snapshot returns a coherent view of environments, catalog, and queue.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{TakenAt: time.Now()}
	for _, env := range e.registry.Environments() {
		state := EnvironmentState{Env: env}
		state.Installed, state.HasData = e.catalog.Installed(env.ID)
		snap.Environments = append(snap.Environments, state)
	}
	snap.Remote, snap.HasRemote = e.catalog.Remote()
	snap.Operations = e.queue.Operations()
	return snap
}

// Submit admits one operation.
func (e *Engine) Submit(kind opqueue.Kind, env environ.ID, v catalog.NodeVersion) (opqueue.Operation, error) {
	return e.queue.Submit(kind, env, v)
}

// SubmitPrune expands and admits a bulk cleanup for the environment.
func (e *Engine) SubmitPrune(env environ.ID) ([]opqueue.Operation, error) {
	return e.queue.SubmitPrune(env)
}

// Cancel removes a queued operation.
func (e *Engine) Cancel(id uuid.UUID) error {
	return e.queue.Cancel(id)
}

// Undo re-issues an install compensating a recent uninstall.
func (e *Engine) Undo(id uuid.UUID) (opqueue.Operation, error) {
	return e.queue.Undo(id)
}

// Operation returns a snapshot of one operation.
func (e *Engine) Operation(id uuid.UUID) (opqueue.Operation, bool) {
	return e.queue.Get(id)
}

// Subscribe registers for queue events. Call the returned cancel function
// when done.
func (e *Engine) Subscribe() (<-chan opqueue.Event, func()) {
	return e.queue.Subscribe()
}

// RefreshEnv synchronously refreshes one environment's installed set.
func (e *Engine) RefreshEnv(ctx context.Context, id environ.ID) error {
	client, err := e.Client(ctx, id)
	if err != nil {
		return err
	}
	return e.catalog.Refresh(ctx, id, client)
}

// RefreshRemote synchronously refreshes the installable-version listing,
// using the native environment's tool.
func (e *Engine) RefreshRemote(ctx context.Context) error {
	client, err := e.Client(ctx, environ.NativeID)
	if err != nil {
		return err
	}
	return e.catalog.RefreshRemote(ctx, client)
}

// Catalog exposes the cached version state.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Manifest returns the current release metadata, fetching it on first use.
// The error is informational (manifest.ErrStale or retrieval failure); a
// usable manifest may be returned alongside it.
func (e *Engine) Manifest(ctx context.Context) (*manifest.Manifest, error) {
	e.mu.Lock()
	cached := e.manifest
	e.mu.Unlock()
	if cached != nil && !cached.Stale(e.cfg.ManifestTTL, time.Now()) {
		return cached, nil
	}

	m, err := e.source.GetManifest(ctx)
	if err != nil {
		if cached != nil {
			return cached, &manifest.ErrStale{FetchedAt: cached.FetchedAt}
		}
		return nil, err
	}

	e.mu.Lock()
	e.manifest = m
	e.mu.Unlock()

	if m.Stale(e.cfg.ManifestTTL, time.Now()) {
		return m, &manifest.ErrStale{FetchedAt: m.FetchedAt}
	}
	return m, nil
}

// CheckUpdates compares an environment's installed maxima against the
// release manifest. Missing or stale release data degrades the report, it
// never fails the check.
func (e *Engine) CheckUpdates(ctx context.Context, env environ.ID) updates.Report {
	m, err := e.Manifest(ctx)
	if err != nil && m == nil {
		log.Debug("update check without release data", "err", err)
	}
	installed := e.catalog.LatestInstalledPerMajor(env)
	return updates.Run(installed, m, e.cfg.ManifestTTL, time.Now())
}

// EOLStatus classifies a version against the release schedule.
func (e *Engine) EOLStatus(ctx context.Context, v catalog.NodeVersion) catalog.SupportState {
	m, _ := e.Manifest(ctx)
	if m == nil {
		return catalog.SupportUnknown
	}
	return catalog.EOLStatus(v, m, time.Now())
}

// watchQueue keeps the catalog in step with completed work: every operation
// that changed an environment triggers a refresh of that environment.
func (e *Engine) watchQueue() {
	defer e.wg.Done()
	events, cancel := e.Subscribe()
	defer cancel()

	for {
		select {
		case <-e.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type != opqueue.EventStatus {
				continue
			}
			switch ev.Op.Status {
			case opqueue.StatusSucceeded, opqueue.StatusUndoAvailable:
				e.refreshAsync(ev.Op.Env)
			case opqueue.StatusFailed:
				// The tool may have partially acted before failing.
				e.catalog.MarkStale(ev.Op.Env)
			}
		}
	}
}

// refreshLoop periodically re-syncs every running environment.
func (e *Engine) refreshLoop() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.registry.Discover(e.ctx)
			for _, env := range e.registry.Environments() {
				if env.Running() {
					e.refreshAsync(env.ID)
				}
			}
		}
	}
}

func (e *Engine) refreshAsync(id environ.ID) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(e.ctx, fnm.DefaultQueryTimeout)
		defer cancel()
		if err := e.RefreshEnv(ctx, id); err != nil {
			log.Debug("background refresh failed", "env", id, "err", err)
		}
	}()
}
