package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fiberdesk/fiberdesk/internal/jobs"
	"github.com/fiberdesk/fiberdesk/internal/shared"
)

// HandleIdempotencyCleanup builds the handler that expires idempotency keys
// older than the retention window.
func HandleIdempotencyCleanup(store *shared.IdempotencyStore, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		tracker := metrics.Track("idempotency_cleanup")
		if retention <= 0 {
			retention = 168 * time.Hour
		}
		if err := store.Cleanup(ctx, retention); err != nil {
			if logger != nil {
				logger.Error("idempotency cleanup", slog.Any("error", err))
			}
			return tracker.End(err)
		}
		if logger != nil {
			logger.Info("idempotency keys cleaned", slog.Duration("retention", retention))
		}
		return tracker.End(nil)
	}
}
