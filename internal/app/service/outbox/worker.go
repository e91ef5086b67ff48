package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	cfgpkg "github.com/superstar643/PITCHINVEST-sub001/pkg/config"
)

const defaultSchedule = "@every 30s"

// Worker retries pending outbox events on a cron schedule.
type Worker struct {
	svc  *Service
	cfg  cfgpkg.OutboxConfig
	log  *zap.SugaredLogger
	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

func NewWorker(svc *Service, cfg *cfgpkg.Config, log *zap.SugaredLogger) *Worker {
	oc := cfg.Outbox
	if oc.Schedule == "" {
		oc.Schedule = defaultSchedule
	}
	return &Worker{svc: svc, cfg: oc, log: log.With("component", "outbox_worker")}
}

// RunOnce processes a single batch and returns how many events succeeded.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := w.svc.ProcessPending(ctx, w.cfg.BatchSize, w.cfg.MaxAttempts)
	if err != nil {
		w.log.Warnw("outbox batch finished with failures",
			"processed", n,
			"failed", len(multierr.Errors(err)),
			"elapsed_ms", time.Since(start).Milliseconds(),
			"err", err,
		)
		return n, err
	}
	if n > 0 {
		w.log.Infow("outbox batch processed", "processed", n, "elapsed_ms", time.Since(start).Milliseconds())
	}
	return n, nil
}

func (w *Worker) Start() error {
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := w.cron.AddFunc(w.cfg.Schedule, func() { _, _ = w.RunOnce(w.ctx) }); err != nil {
		return fmt.Errorf("schedule outbox worker %q: %w", w.cfg.Schedule, err)
	}
	w.cron.Start()
	w.log.Infow("outbox worker started", "schedule", w.cfg.Schedule, "batch_size", w.cfg.BatchSize, "max_attempts", w.cfg.MaxAttempts)
	return nil
}

// Stop waits for a running batch to finish, or for ctx to expire.
func (w *Worker) Stop(ctx context.Context) error {
	if w.cron == nil {
		return nil
	}
	done := w.cron.Stop()
	w.cancel()
	select {
	case <-done.Done():
		w.log.Infow("outbox worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func registerWorker(lc fx.Lifecycle, w *Worker) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { return w.Start() },
		OnStop:  w.Stop,
	})
}

var Module = fx.Options(
	fx.Provide(NewService),
	fx.Provide(NewWorker),
	fx.Invoke(registerWorker),
)
