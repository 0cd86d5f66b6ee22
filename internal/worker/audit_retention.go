package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/ward-assistant/internal/repository"
	"github.com/jwalitptl/ward-assistant/pkg/logger"
)

// AuditRetentionWorker purges audit entries older than the retention window
// on a fixed interval.
type AuditRetentionWorker struct {
	repo          repository.AuditRepository
	retentionDays int
	interval      time.Duration
	logger        *logger.Logger
	now           func() time.Time
}

func NewAuditRetentionWorker(repo repository.AuditRepository, retentionDays int, interval time.Duration, log *logger.Logger) *AuditRetentionWorker {
	return &AuditRetentionWorker{
		repo:          repo,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        log.With("component", "audit_retention"),
		now:           time.Now,
	}
}

// Start runs a purge immediately and then once per interval until ctx is
// done. A failed purge is logged and retried on the next tick.
func (w *AuditRetentionWorker) Start(ctx context.Context) {
	if w.retentionDays <= 0 {
		w.logger.Info("audit retention disabled")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("audit retention started", "retention_days", w.retentionDays, "interval", w.interval.String())
	for {
		if _, err := w.RunOnce(ctx); err != nil {
			w.logger.Error(err, "audit retention pass failed")
		}

		select {
		case <-ctx.Done():
			w.logger.Info("audit retention stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce deletes every entry created before the retention cutoff.
func (w *AuditRetentionWorker) RunOnce(ctx context.Context) (int64, error) {
	cutoff := w.now().UTC().AddDate(0, 0, -w.retentionDays)

	rows, err := w.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit logs: %w", err)
	}

	w.logger.Info("purged audit logs", "deleted", rows, "cutoff", cutoff.Format(time.RFC3339))
	return rows, nil
}
