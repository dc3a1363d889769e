package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
)

// DefaultRetentionSchedule runs the cleanup at the top of every hour.
const DefaultRetentionSchedule = "0 * * * *"

// OutboxRetention deletes processed outbox events older than the retention
// window on a cron schedule.
type OutboxRetention struct {
	repo      repository.OutboxRepository
	retention time.Duration
	logger    *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewOutboxRetention(repo repository.OutboxRepository, retention time.Duration, log *logger.Logger, m *metrics.Metrics) *OutboxRetention {
	return &OutboxRetention{
		repo:      repo,
		retention: retention,
		logger:    log,
		metrics:   m,
		now:       time.Now,
	}
}

// Schedule registers the cleanup on c. The caller owns c's lifecycle.
func (w *OutboxRetention) Schedule(ctx context.Context, c *cron.Cron, spec string) error {
	if spec == "" {
		spec = DefaultRetentionSchedule
	}
	_, err := c.AddFunc(spec, func() {
		if _, err := w.Cleanup(ctx); err != nil {
			w.logger.Error(err, "Outbox cleanup failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule outbox cleanup: %w", err)
	}
	return nil
}

func (w *OutboxRetention) Cleanup(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)

	rows, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup outbox events: %w", err)
	}

	w.metrics.OutboxEventsPurged.Add(float64(rows))
	w.logger.Info("Cleaned up processed outbox events", "rows", rows, "cutoff", cutoff)
	return rows, nil
}
