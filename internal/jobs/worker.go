package jobs

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/progress"
	"github.com/iamthetwodigiter/rusty-rebase/internal/telemetry"
)

type worker struct {
	opts   Options
	emit   progress.Emitter
	queue  progress.Emitter
	logger zerolog.Logger
}

// run executes body and always closes the run with exactly one Finished.
func (w *worker) run(ctx context.Context, body func(context.Context, *worker)) {
	defer func() {
		if p := recover(); p != nil {
			err := panicError(p)
			w.logger.Error().Err(err).Msg("worker aborted")
			w.queue.Emit(progress.Log{Line: "[error] " + err.Error()})
		}
		w.queue.Emit(progress.Finished{})
		w.logger.Debug().Bool("cancelled", ctx.Err() != nil).Msg("run finished")
	}()
	w.logger.Debug().Msg("run started")
	body(ctx, w)
}

func (w *worker) resolveAll(ctx context.Context, items []Item) {
	for _, it := range items {
		if ctx.Err() != nil {
			return
		}
		w.emit.Emit(progress.Progress{Key: it.Key, Phase: "Resolving"})

		spanCtx, span := telemetry.StartSpan(ctx, "jobs.resolve", "key", it.Key)
		asset, err := w.opts.Resolver.Resolve(spanCtx, it.Spec, w.opts.Host)
		telemetry.End(span, err)

		done := progress.Done{Key: it.Key}
		if err != nil {
			done.Err = cancelledOr(ctx, err)
		} else {
			done.Asset = &asset
		}
		w.queue.Emit(done)
		if errs.IsCancelled(done.Err) {
			return
		}
	}
}

func (w *worker) installAll(ctx context.Context, items []Item) {
	for _, it := range items {
		if ctx.Err() != nil {
			return
		}
		done := w.installOne(ctx, it)
		w.queue.Emit(done)
		if errs.IsCancelled(done.Err) {
			return
		}
	}
}

func (w *worker) installOne(ctx context.Context, it Item) progress.Done {
	ctx, span := telemetry.StartSpan(ctx, "jobs.install", "key", it.Key)
	rec := &progress.Recorder{Next: w.emit}
	done := progress.Done{Key: it.Key}

	w.emit.Emit(progress.Progress{Key: it.Key, Phase: "Preparing"})

	if it.Resolved == nil {
		w.emit.Emit(progress.Progress{Key: it.Key, Phase: "Resolving"})
		asset, err := w.opts.Resolver.Resolve(ctx, it.Spec, w.opts.Host)
		if err != nil {
			err = cancelledOr(ctx, err)
			rec.Logf("[error] Resolve failed: %s", err)
			telemetry.End(span, err)
			done.Logs, done.Err = rec.Lines, err
			return done
		}
		it.Resolved = &asset
	}
	done.Asset = it.Resolved

	w.emit.Emit(progress.Progress{Key: it.Key, Phase: "Installing", Speed: "BUSY"})
	rec.Logf("== %s (%s) ==", it.Spec.DisplayName, it.Resolved.Version)

	err := w.opts.Steps.Run(ctx, it.Spec, rec)
	if err == nil {
		err = w.opts.Artifacts.Install(ctx, it.Spec, *it.Resolved, rec)
	}
	if err != nil {
		err = cancelledOr(ctx, err)
		w.logger.Warn().Err(err).Str("key", it.Key).Msg("install failed")
	}
	telemetry.End(span, err)

	done.Logs, done.Err = rec.Lines, err
	return done
}

func (w *worker) restore(ctx context.Context, dir string) {
	ctx, span := telemetry.StartSpan(ctx, "jobs.restore", "dir", dir)
	w.emit.Emit(progress.Progress{Key: RestoreKey, Phase: "Restoring Files", Speed: "BUSY"})

	lines, err := w.opts.Restore(ctx, dir, w.emit)
	if err != nil {
		err = cancelledOr(ctx, err)
	}
	telemetry.End(span, err)
	w.queue.Emit(progress.Done{Key: RestoreKey, Logs: lines, Err: err})
}

// cancelledOr reports err as a cancellation when the run was cancelled while
// the failing operation was in flight.
func cancelledOr(ctx context.Context, err error) error {
	if errs.IsCancelled(err) || ctx.Err() == nil {
		return err
	}
	return errs.Cancelled(ctx.Err())
}
