package background

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

const defaultTimeout = 30 * time.Second

// Runner executes side effects after a lifecycle write has committed. Tasks
// are detached from the caller's cancellation and report into a result
// channel that callers never have to read.
type Runner struct {
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewRunner(logger *slog.Logger, timeout time.Duration) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Runner{logger: logger, timeout: timeout}
}

func (r *Runner) Go(ctx context.Context, name string, fn func(context.Context) error) <-chan error {
	done := make(chan error, 1)
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()

		taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()

		err := r.run(taskCtx, fn)
		if err != nil {
			r.logger.Warn("background task failed", "task", name, "error", err)
		}
		done <- err
		close(done)
	}()

	return done
}

func (r *Runner) run(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v\n%s", p, debug.Stack())
		}
	}()
	return fn(ctx)
}

// Wait blocks until every task started so far has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}
