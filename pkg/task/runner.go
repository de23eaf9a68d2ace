package task

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// Cancel stops a scheduled job that has not started yet.
type Cancel func()

// Job is a unit of detached work.
type Job func(ctx context.Context) error

// Runner executes fire-and-forget jobs. Callers never join a job; failures
// and panics are logged and contained.
type Runner struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewRunner creates a runner. A nil logger uses slog.Default().
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{ctx: ctx, cancel: cancel, logger: logger}
}

// Go runs job in its own goroutine.
func (r *Runner) Go(name string, job Job) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(name, job)
	}()
}

// After runs job once d has elapsed. Jobs still waiting when the runner is
// closed are dropped.
func (r *Runner) After(name string, d time.Duration, job Job) Cancel {
	cancelCh := make(chan struct{})
	var once sync.Once
	cancel := func() { once.Do(func() { close(cancelCh) }) }

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-timer.C:
			r.run(name, job)
		case <-cancelCh:
		case <-r.ctx.Done():
		}
	}()
	return cancel
}

// Wait blocks until every started or pending job has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Close drops pending jobs, cancels the context handed to running ones and waits.
func (r *Runner) Close() {
	r.cancel()
	r.wg.Wait()
}

func (r *Runner) run(name string, job Job) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Background job panicked",
				"job", name,
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()))
		}
	}()
	if err := job(r.ctx); err != nil {
		r.logger.Warn("Background job failed", "job", name, "err", err)
	}
}
