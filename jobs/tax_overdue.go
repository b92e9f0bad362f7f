package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fiberdesk/fiberdesk/internal/jobs"
)

// OverdueMarker flags pending tax records past their due date.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context) (int64, error)
}

// HandleTaxOverdueScan builds the handler that promotes past-due pending tax
// records to the stored overdue status.
func HandleTaxOverdueScan(marker OverdueMarker, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		tracker := metrics.Track("tax_overdue_scan")
		flagged, err := marker.MarkOverdue(ctx)
		if err != nil {
			if logger != nil {
				logger.Error("tax overdue scan", slog.Any("error", err))
			}
			return tracker.End(err)
		}
		if logger != nil && flagged > 0 {
			logger.Info("tax records flagged overdue", slog.Int64("count", flagged))
		}
		return tracker.End(nil)
	}
}
