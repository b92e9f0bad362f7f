// Package jobs defines the background tasks and the Asynq worker that runs
// them.
package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskFinanceCacheWarmup pre-computes the current-month dashboard so the
	// first request after an invalidation is served warm.
	TaskFinanceCacheWarmup = "finance:cache_warmup"
	// TaskIdempotencyCleanup deletes idempotency keys older than the retention
	// window.
	TaskIdempotencyCleanup = "shared:idempotency_cleanup"
	// TaskTaxOverdueScan flags pending tax records past their due date.
	TaskTaxOverdueScan = "tax:overdue_scan"
)

// NewFinanceCacheWarmupTask constructs the warmup task.
func NewFinanceCacheWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskFinanceCacheWarmup, nil)
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}

// NewTaxOverdueScanTask constructs the overdue scan task.
func NewTaxOverdueScanTask() *asynq.Task {
	return asynq.NewTask(TaskTaxOverdueScan, nil)
}
