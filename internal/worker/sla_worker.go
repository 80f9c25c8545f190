package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/service"
)

// SlaWorker rescans unresolved tickets on a fixed interval so that
// tickets sitting past their resolution budget are flagged without any
// user activity.
type SlaWorker struct {
	sla      *service.SlaService
	interval time.Duration
	logger   *zap.Logger
}

// NewSlaWorker constructs the worker.
func NewSlaWorker(sla *service.SlaService, interval time.Duration, logger *zap.Logger) *SlaWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &SlaWorker{sla: sla, interval: interval, logger: logger}
}

// Run blocks until the context is cancelled, evaluating all unresolved
// tickets once per interval. An immediate pass runs on startup.
func (w *SlaWorker) Run(ctx context.Context) {
	w.logger.Info("sla worker started", zap.Duration("interval", w.interval))

	w.scan(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sla worker stopped")
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *SlaWorker) scan(ctx context.Context) {
	recorded, err := w.sla.EvaluateAll(ctx)
	if err != nil {
		w.logger.Error("sla scan failed", zap.Error(err))
		return
	}
	if recorded > 0 {
		w.logger.Info("sla scan finished", zap.Int("breaches_recorded", recorded))
	}
}
