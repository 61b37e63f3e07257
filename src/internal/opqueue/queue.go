package opqueue

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/nodedesk/nodedesk/src/internal/catalog"
	"github.com/nodedesk/nodedesk/src/internal/environ"
	"github.com/nodedesk/nodedesk/src/internal/fnm"
)

// Client is the slice of the tool client workers need. *fnm.Client
// satisfies it.
type Client interface {
	Install(ctx context.Context, v catalog.NodeVersion, onProgress func(fnm.Progress)) error
	Uninstall(ctx context.Context, v catalog.NodeVersion) error
	SetDefault(ctx context.Context, v catalog.NodeVersion) error
}

// ClientSource hands out a Client per environment. Resolution failures
// (tool missing) surface on the operation, not at admission.
type ClientSource interface {
	ClientFor(ctx context.Context, env environ.ID) (Client, error)
}

// EnvResolver reports environment availability at admission time.
// *environ.Registry satisfies it.
type EnvResolver interface {
	Get(id environ.ID) (*environ.Environment, bool)
}

// InstalledSnapshot provides the catalog view bulk expansion reads.
// *catalog.Catalog satisfies it.
type InstalledSnapshot interface {
	Installed(env environ.ID) (catalog.InstalledSet, bool)
}

// Config bounds the queue's scheduling behavior.
type Config struct {
	// EnvConcurrency caps how many operations run at once per environment.
	EnvConcurrency int

	// UndoGrace is how long an uninstall stays undoable after success.
	UndoGrace time.Duration
}

// DefaultConfig returns the standard bounds.
func DefaultConfig() Config {
	return Config{EnvConcurrency: 2, UndoGrace: 10 * time.Second}
}

const eventBuffer = 256

// Queue schedules operations: disjoint (environment, version) pairs run
// concurrently up to the per-environment bound, identical pairs are strictly
// serialized in admission order, and set-default requests jump ahead of
// other waiters on their pair.
type Queue struct {
	cfg     Config
	clients ClientSource
	envs    EnvResolver
	catalog InstalledSnapshot

	requests chan func()
	worker   chan workerMsg
	expiries chan uuid.UUID

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	stopOnce sync.Once

	// Everything below is owned by the loop goroutine.
	ops           map[uuid.UUID]*Operation
	order         []uuid.UUID // queued ops, admission order
	runningPairs  map[pairKey]uuid.UUID
	runningPerEnv map[environ.ID]int
	undoable      map[pairKey]uuid.UUID
	subscribers   map[int]chan Event
	nextSubID     int
	now           func() time.Time
}

// workerMsg is what workers report to the loop. Progress notes and the
// final result travel on one channel so per-operation ordering holds.
type workerMsg struct {
	id       uuid.UUID
	progress fnm.Progress
	done     bool
	err      error
}

// New creates a Queue. Call Start before submitting.
func New(cfg Config, clients ClientSource, envs EnvResolver, snapshot InstalledSnapshot) *Queue {
	if cfg.EnvConcurrency <= 0 {
		cfg.EnvConcurrency = DefaultConfig().EnvConcurrency
	}
	if cfg.UndoGrace <= 0 {
		cfg.UndoGrace = DefaultConfig().UndoGrace
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		cfg:           cfg,
		clients:       clients,
		envs:          envs,
		catalog:       snapshot,
		requests:      make(chan func()),
		worker:        make(chan workerMsg, 64),
		expiries:      make(chan uuid.UUID, 16),
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
		ops:           make(map[uuid.UUID]*Operation),
		runningPairs:  make(map[pairKey]uuid.UUID),
		runningPerEnv: make(map[environ.ID]int),
		undoable:      make(map[pairKey]uuid.UUID),
		subscribers:   make(map[int]chan Event),
		now:           time.Now,
	}
}

// Start launches the queue loop.
func (q *Queue) Start() {
	go q.loop()
}

// Stop cancels running workers and shuts the loop down. Queued operations
// never start; their state is left as-is.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		q.cancel()
		<-q.done
	})
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		select {
		case <-q.ctx.Done():
			q.closeSubscribers()
			return
		case req := <-q.requests:
			req()
		case msg := <-q.worker:
			if msg.done {
				q.handleResult(msg)
			} else {
				q.handleProgress(msg)
			}
		case id := <-q.expiries:
			q.handleExpiry(id)
		}
	}
}

// ask runs fn on the loop goroutine and waits for it.
func (q *Queue) ask(fn func()) error {
	doneCh := make(chan struct{})
	select {
	case q.requests <- func() { fn(); close(doneCh) }:
	case <-q.ctx.Done():
		return ErrQueueClosed
	}
	select {
	case <-doneCh:
		return nil
	case <-q.ctx.Done():
		return ErrQueueClosed
	}
}

// Submit admits one operation. The environment must exist and be running;
// admission never blocks on subprocess work.
func (q *Queue) Submit(kind Kind, env environ.ID, version catalog.NodeVersion) (Operation, error) {
	var op Operation
	var err error
	askErr := q.ask(func() {
		var admitted *Operation
		admitted, err = q.admit(kind, env, version, uuid.Nil)
		if err == nil {
			op = *admitted
			q.dispatch()
		}
	})
	if askErr != nil {
		return Operation{}, askErr
	}
	return op, err
}

// SubmitPrune expands bulk cleanup at admission: every installed version in
// the environment that is neither the default nor the newest patch of its
// major line gets one uninstall operation. The expansion is fixed against
// the catalog snapshot taken now; later catalog changes do not re-expand.
func (q *Queue) SubmitPrune(env environ.ID) ([]Operation, error) {
	var ops []Operation
	var err error
	askErr := q.ask(func() {
		set, ok := q.catalog.Installed(env)
		if !ok {
			set = catalog.InstalledSet{}
		}
		for _, v := range catalog.PruneCandidates(set) {
			var admitted *Operation
			admitted, err = q.admit(KindUninstall, env, v, uuid.Nil)
			if err != nil {
				return
			}
			ops = append(ops, *admitted)
		}
		q.dispatch()
	})
	if askErr != nil {
		return nil, askErr
	}
	return ops, err
}

// Cancel removes a queued operation. Running and finished operations are
// not cancelable.
func (q *Queue) Cancel(id uuid.UUID) error {
	var err error
	askErr := q.ask(func() {
		op, ok := q.ops[id]
		if !ok {
			err = &ErrUnknownOperation{ID: id}
			return
		}
		if op.Status != StatusQueued {
			err = &ErrNotCancelable{ID: id, Status: op.Status}
			return
		}
		q.removeQueued(id)
		op.Status = StatusCanceled
		op.FinishedAt = q.now()
		q.emit(EventStatus, op)
		q.dispatch()
	})
	if askErr != nil {
		return askErr
	}
	return err
}

// Undo compensates a completed uninstall by re-issuing an install of the
// same version on the same environment. Valid only inside the grace window
// and only while no newer operation has touched the pair.
func (q *Queue) Undo(id uuid.UUID) (Operation, error) {
	var op Operation
	var err error
	askErr := q.ask(func() {
		target, ok := q.ops[id]
		if !ok {
			err = &ErrUnknownOperation{ID: id}
			return
		}
		switch target.Status {
		case StatusUndoAvailable:
		case StatusExpired:
			err = &ErrUndoExpired{ID: id}
			return
		default:
			err = &ErrNotUndoable{ID: id, Status: target.Status}
			return
		}
		if q.now().After(target.UndoDeadline) {
			q.expireUndo(target)
			err = &ErrUndoExpired{ID: id}
			return
		}

		// Admit the compensating install first: if admission fails (the
		// environment went away inside the grace window) the uninstall
		// stays UndoAvailable and the undo can be retried.
		var admitted *Operation
		admitted, err = q.admit(KindInstall, target.Env, target.Version, id)
		if err != nil {
			return
		}

		target.Status = StatusUndone
		delete(q.undoable, target.pair())
		q.emit(EventStatus, target)

		op = *admitted
		q.dispatch()
	})
	if askErr != nil {
		return Operation{}, askErr
	}
	return op, err
}

// Get returns a snapshot of one operation.
func (q *Queue) Get(id uuid.UUID) (Operation, bool) {
	var op Operation
	var found bool
	_ = q.ask(func() {
		if live, ok := q.ops[id]; ok {
			op = *live
			found = true
		}
	})
	return op, found
}

// Operations returns snapshots of every known operation in creation order.
func (q *Queue) Operations() []Operation {
	var out []Operation
	_ = q.ask(func() {
		out = make([]Operation, 0, len(q.ops))
		for _, op := range q.ops {
			out = append(out, *op)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Subscribe registers an event listener. The returned cancel function must
// be called to release it. Slow subscribers lose events rather than stall
// the queue.
func (q *Queue) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, eventBuffer)
	var id int
	_ = q.ask(func() {
		id = q.nextSubID
		q.nextSubID++
		q.subscribers[id] = ch
	})
	cancel := func() {
		_ = q.ask(func() {
			if sub, ok := q.subscribers[id]; ok {
				delete(q.subscribers, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// admit validates and enqueues one operation. Loop goroutine only.
func (q *Queue) admit(kind Kind, envID environ.ID, version catalog.NodeVersion, undoOf uuid.UUID) (*Operation, error) {
	env, ok := q.envs.Get(envID)
	if !ok {
		return nil, &environ.ErrEnvironmentUnavailable{Env: envID, Reason: "unknown environment"}
	}
	if !env.Running() {
		return nil, &environ.ErrEnvironmentUnavailable{Env: envID, Reason: "environment is not running"}
	}

	op := &Operation{
		ID:        uuid.New(),
		Kind:      kind,
		Env:       envID,
		Version:   version,
		Status:    StatusQueued,
		CreatedAt: q.now(),
		UndoOf:    undoOf,
	}

	// A new operation on the pair makes any outstanding undo unsound.
	if prevID, ok := q.undoable[op.pair()]; ok && prevID != undoOf {
		if prev, ok := q.ops[prevID]; ok {
			q.expireUndo(prev)
		}
	}

	q.ops[op.ID] = op
	q.order = append(q.order, op.ID)
	q.emit(EventStatus, op)
	return op, nil
}

// dispatch starts every queued operation the scheduling rules allow. Loop
// goroutine only.
func (q *Queue) dispatch() {
	started := true
	for started {
		started = false
		for _, id := range q.order {
			op := q.ops[id]
			pair := op.pair()
			if _, busy := q.runningPairs[pair]; busy {
				continue
			}
			if q.runningPerEnv[op.Env] >= q.cfg.EnvConcurrency {
				continue
			}
			q.start(q.nextForPair(pair))
			started = true
			break
		}
	}
}

// nextForPair picks which queued operation on the pair runs next:
// the earliest set-default if one is waiting, otherwise the head.
func (q *Queue) nextForPair(pair pairKey) *Operation {
	var head *Operation
	for _, id := range q.order {
		op := q.ops[id]
		if op.pair() != pair {
			continue
		}
		if op.Kind == KindSetDefault {
			return op
		}
		if head == nil {
			head = op
		}
	}
	return head
}

// start moves a queued operation to Running and launches its worker. Loop
// goroutine only.
func (q *Queue) start(op *Operation) {
	q.removeQueued(op.ID)
	op.Status = StatusRunning
	op.StartedAt = q.now()
	q.runningPairs[op.pair()] = op.ID
	q.runningPerEnv[op.Env]++
	q.emit(EventStatus, op)

	go q.work(*op)
}

// work executes one operation's subprocess. Worker goroutine; reports back
// over channels only.
func (q *Queue) work(op Operation) {
	client, err := q.clients.ClientFor(q.ctx, op.Env)
	if err == nil {
		switch op.Kind {
		case KindInstall:
			err = client.Install(q.ctx, op.Version, func(p fnm.Progress) {
				select {
				case q.worker <- workerMsg{id: op.ID, progress: p}:
				case <-q.ctx.Done():
				}
			})
		case KindUninstall:
			err = client.Uninstall(q.ctx, op.Version)
		case KindSetDefault:
			err = client.SetDefault(q.ctx, op.Version)
		}
	}

	select {
	case q.worker <- workerMsg{id: op.ID, done: true, err: err}:
	case <-q.ctx.Done():
	}
}

func (q *Queue) handleResult(res workerMsg) {
	op, ok := q.ops[res.id]
	if !ok {
		return
	}

	pair := op.pair()
	delete(q.runningPairs, pair)
	q.runningPerEnv[op.Env]--
	op.FinishedAt = q.now()

	if res.err != nil {
		op.Status = StatusFailed
		op.Err = failureCause(res.err)
		op.Detail = failureDetail(res.err)
		op.Progress = fnm.Progress{Phase: fnm.PhaseFailed, Err: op.Err}
		log.Warn("operation failed", "kind", op.Kind, "env", op.Env, "version", op.Version, "err", res.err)
	} else if op.Kind == KindUninstall {
		op.Status = StatusUndoAvailable
		op.UndoDeadline = op.FinishedAt.Add(q.cfg.UndoGrace)
		q.undoable[pair] = op.ID
		q.scheduleExpiry(op.ID, q.cfg.UndoGrace)
	} else {
		op.Status = StatusSucceeded
	}

	q.emit(EventStatus, op)
	q.dispatch()
}

func (q *Queue) handleProgress(note workerMsg) {
	op, ok := q.ops[note.id]
	if !ok || op.Status != StatusRunning {
		return
	}
	op.Progress = note.progress
	q.emit(EventProgress, op)
}

// scheduleExpiry arms a fire-and-forget timer; operations that were undone
// or invalidated in the meantime are filtered in handleExpiry.
func (q *Queue) scheduleExpiry(id uuid.UUID, after time.Duration) {
	time.AfterFunc(after, func() {
		select {
		case q.expiries <- id:
		case <-q.ctx.Done():
		}
	})
}

func (q *Queue) handleExpiry(id uuid.UUID) {
	op, ok := q.ops[id]
	if !ok || op.Status != StatusUndoAvailable {
		return
	}
	q.expireUndo(op)
}

// expireUndo transitions an undoable uninstall to Expired. Loop goroutine
// only.
func (q *Queue) expireUndo(op *Operation) {
	if op.Status != StatusUndoAvailable {
		return
	}
	op.Status = StatusExpired
	delete(q.undoable, op.pair())
	q.emit(EventStatus, op)
}

func (q *Queue) removeQueued(id uuid.UUID) {
	for i, queued := range q.order {
		if queued == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			return
		}
	}
}

func (q *Queue) emit(t EventType, op *Operation) {
	ev := Event{Type: t, Op: *op}
	for _, sub := range q.subscribers {
		select {
		case sub <- ev:
		default:
			log.Debug("dropping event for slow subscriber", "op", op.ID, "type", t)
		}
	}
}

func (q *Queue) closeSubscribers() {
	for id, sub := range q.subscribers {
		delete(q.subscribers, id)
		close(sub)
	}
}

func failureCause(err error) string {
	var proc *fnm.ProcessError
	if errors.As(err, &proc) {
		if cause := proc.Cause(); cause != "" {
			return cause
		}
	}
	return err.Error()
}

func failureDetail(err error) string {
	var proc *fnm.ProcessError
	if errors.As(err, &proc) {
		return proc.Stderr
	}
	return ""
}
