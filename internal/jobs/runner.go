// Package jobs sequences resolution, installation and restore work on a
// single background worker and reports progress through an event queue.
package jobs

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/iamthetwodigiter/rusty-rebase/internal/catalog"
	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/host"
	"github.com/iamthetwodigiter/rusty-rebase/internal/logx"
	"github.com/iamthetwodigiter/rusty-rebase/internal/progress"
	"github.com/iamthetwodigiter/rusty-rebase/internal/resolve"
)

// RestoreKey is the Done key of a restore run.
const RestoreKey = "Restore"

// ErrBusy is returned when a run is started while another is active.
var ErrBusy = errs.New(errs.CodeExecution, "a run is already in progress")

// Item is one queued piece of software.
type Item struct {
	Key      string
	Spec     catalog.Spec
	Resolved *resolve.Asset
}

// AssetResolver resolves a spec for the host.
type AssetResolver interface {
	Resolve(ctx context.Context, spec catalog.Spec, h host.Descriptor) (resolve.Asset, error)
}

// StepExecutor runs an item's setup steps.
type StepExecutor interface {
	Run(ctx context.Context, spec catalog.Spec, rec *progress.Recorder) error
}

// ArtifactInstaller downloads and installs an item's artifact.
type ArtifactInstaller interface {
	Install(ctx context.Context, spec catalog.Spec, asset resolve.Asset, rec *progress.Recorder) error
}

// RestoreFunc restores the backup in dir.
type RestoreFunc func(ctx context.Context, dir string, emit progress.Emitter) ([]string, error)

// Options wires the runner's collaborators.
type Options struct {
	Host      host.Descriptor
	Resolver  AssetResolver
	Steps     StepExecutor
	Artifacts ArtifactInstaller
	Restore   RestoreFunc
}

// Runner owns at most one active run. Start*, Cancel, Drain and State are
// called from the caller goroutine; the worker communicates only through the
// run's queue.
type Runner struct {
	opts Options

	mu     sync.Mutex
	state  State
	runID  string
	queue  *progress.Queue
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns an idle runner.
func New(opts Options) *Runner {
	return &Runner{opts: opts, state: Idle, queue: progress.NewQueue()}
}

// StartResolve resolves every item, emitting one Done per item that carries
// the resolved asset.
func (r *Runner) StartResolve(ctx context.Context, items []Item) (string, error) {
	own := cloneItems(items)
	return r.start(ctx, "resolve", func(ctx context.Context, w *worker) {
		w.resolveAll(ctx, own)
	})
}

// StartInstall resolves unresolved items, then runs steps and installs the
// artifact for each item in order.
func (r *Runner) StartInstall(ctx context.Context, items []Item) (string, error) {
	own := cloneItems(items)
	return r.start(ctx, "install", func(ctx context.Context, w *worker) {
		w.installAll(ctx, own)
	})
}

// StartRestore restores the backup in dir.
func (r *Runner) StartRestore(ctx context.Context, dir string) (string, error) {
	return r.start(ctx, "restore", func(ctx context.Context, w *worker) {
		w.restore(ctx, dir)
	})
}

func (r *Runner) start(parent context.Context, kind string, body func(context.Context, *worker)) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Active() {
		return "", ErrBusy
	}

	ctx, cancel := context.WithCancel(parent)
	r.runID = uuid.NewString()
	r.queue = progress.NewQueue()
	r.cancel = cancel
	r.done = make(chan struct{})
	r.state = Running

	w := &worker{
		opts:   r.opts,
		emit:   gate{ctx: ctx, next: r.queue},
		queue:  r.queue,
		logger: logx.Get("jobs").With().Str("run", r.runID).Str("kind", kind).Logger(),
	}
	done := r.done
	go func() {
		defer close(done)
		defer cancel()
		w.run(ctx, body)
	}()
	return r.runID, nil
}

// Cancel requests cancellation of the active run. It reports whether a run
// was signalled.
func (r *Runner) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Running {
		return false
	}
	r.state = Cancelling
	r.cancel()
	return true
}

// Drain returns pending events without blocking. Observing Finished moves
// the runner to Completed or Cancelled.
func (r *Runner) Drain() []progress.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.queue.Drain()
	for _, ev := range events {
		if _, ok := ev.(progress.Finished); !ok {
			continue
		}
		switch r.state {
		case Cancelling:
			r.state = Cancelled
		case Running:
			r.state = Completed
		}
	}
	return events
}

// Ready is signalled whenever the active run emits.
func (r *Runner) Ready() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queue.Ready()
}

// Wait blocks until the active run's worker has exited. Events stay queued
// for Drain.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

// State returns the runner state as last observed by the caller.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// RunID returns the id of the most recent run.
func (r *Runner) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}

func cloneItems(items []Item) []Item {
	own := make([]Item, len(items))
	for i, it := range items {
		own[i] = it
		if it.Resolved != nil {
			asset := *it.Resolved
			own[i].Resolved = &asset
		}
	}
	return own
}

// gate drops phase and ratio updates once the run is cancelled so the caller
// sees no progress after requesting cancellation.
type gate struct {
	ctx  context.Context
	next progress.Emitter
}

func (g gate) Emit(ev progress.Event) {
	switch ev.(type) {
	case progress.Progress, progress.SubProgress:
		if g.ctx.Err() != nil {
			return
		}
	}
	g.next.Emit(ev)
}

func panicError(p any) error {
	return errs.Newf(errs.CodeExecution, "worker panic: %v", p)
}
