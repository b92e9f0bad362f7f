package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fiberdesk/fiberdesk/internal/finance"
	jobmetrics "github.com/fiberdesk/fiberdesk/internal/jobs"
)

// HandleFinanceCacheWarmup builds the handler that pre-computes the
// current-month dashboard so it lands in the report cache.
func HandleFinanceCacheWarmup(svc *finance.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		tracker := metrics.Track("finance_cache_warmup")
		now := time.Now().UTC()
		rng := finance.Range{
			From: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
			To:   now,
		}
		_, err := svc.Dashboard(ctx, rng)
		if err != nil {
			if logger != nil {
				logger.Error("finance cache warmup", slog.Any("error", err))
			}
			return tracker.End(err)
		}
		if logger != nil {
			logger.Info("finance cache warmed",
				slog.String("from", rng.From.Format("2006-01-02")),
				slog.String("to", rng.To.Format("2006-01-02")))
		}
		return tracker.End(nil)
	}
}
