// internal/service/cleanup/worker.go
package cleanup

import (
	"context"
	"time"

	"go.uber.org/zap"

	"volante-service/internal/pkg/session"
)

// Worker runs the session retention sweep on a timer, decoupled from the
// login path. The login-coupled sweep still runs; this keeps the table tidy
// between logins.
type Worker struct {
	manager  *session.Manager
	interval time.Duration
	logger   *zap.Logger
}

func NewWorker(manager *session.Manager, interval time.Duration, logger *zap.Logger) *Worker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Worker{
		manager:  manager,
		interval: interval,
		logger:   logger,
	}
}

// Start runs the sweeper until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	go w.run(ctx)
	w.logger.Info("session cleanup worker started", zap.Duration("interval", w.interval))
}

func (w *Worker) run(ctx context.Context) {
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	expired, purged, err := w.manager.Sweep(ctx)
	if err != nil {
		w.logger.Error("session sweep failed", zap.Error(err))
		return
	}
	if expired > 0 || purged > 0 {
		w.logger.Info("session sweep completed",
			zap.Int64("expired", expired),
			zap.Int64("purged", purged),
		)
	}
}
