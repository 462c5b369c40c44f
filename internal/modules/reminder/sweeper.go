package reminder

import (
	"context"
	"log/slog"
	"time"

	"gigmarket/internal/pkg/lock"
)

const SweepLockKey = "gigmarket:lock:reminder-sweep"

type SweeperConfig struct {
	Interval     time.Duration
	InitialDelay time.Duration
	LockTTL      time.Duration
}

// Sweeper drives CheckAndSend on a fixed interval. When several instances
// share a Redis locker only one of them sweeps at a time.
type Sweeper struct {
	scheduler *Scheduler
	locker    lock.Locker
	cfg       SweeperConfig
	logger    *slog.Logger
}

func NewSweeper(scheduler *Scheduler, locker lock.Locker, cfg SweeperConfig, logger *slog.Logger) *Sweeper {
	if locker == nil {
		locker = lock.Local{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = cfg.Interval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{scheduler: scheduler, locker: locker, cfg: cfg, logger: logger}
}

// SweepOnce runs a single sweep under the lock. ran is false when another
// instance holds it.
func (w *Sweeper) SweepOnce(ctx context.Context) (res SweepResult, ran bool, err error) {
	release, ok, err := w.locker.TryLock(ctx, SweepLockKey, w.cfg.LockTTL)
	if err != nil {
		return res, false, err
	}
	if !ok {
		w.logger.Debug("reminder sweep skipped, lock held elsewhere")
		return res, false, nil
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			w.logger.Warn("release sweep lock", "error", rerr)
		}
	}()

	res, err = w.scheduler.CheckAndSend(ctx)
	return res, true, err
}

// Start launches the sweep loop and returns a stop channel, mirroring the
// other background schedulers. The first sweep runs after InitialDelay.
func (w *Sweeper) Start(ctx context.Context) chan struct{} {
	stopCh := make(chan struct{})

	go func() {
		timer := time.NewTimer(w.cfg.InitialDelay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		}

		ticker := time.NewTicker(w.cfg.Interval)
		defer ticker.Stop()

		for {
			w.tick(ctx)
			select {
			case <-ticker.C:
			case <-stopCh:
				w.logger.Info("reminder sweeper stopped")
				return
			case <-ctx.Done():
				w.logger.Info("reminder sweeper stopped (context done)")
				return
			}
		}
	}()

	w.logger.Info("reminder sweeper started", "interval", w.cfg.Interval, "initial_delay", w.cfg.InitialDelay)
	return stopCh
}

func (w *Sweeper) tick(ctx context.Context) {
	if _, _, err := w.SweepOnce(ctx); err != nil {
		w.logger.Error("reminder sweep failed", "error", err)
	}
}
