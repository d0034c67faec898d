package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/liftplan/liftplan/internal/jobs"
	"github.com/liftplan/liftplan/internal/reconcile"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskWeeklyReconcile rebuilds and caches the weekly comparison report.
	TaskWeeklyReconcile = "reconcile:weekly"
)

// WeeklyReconcilePayload names the delivery year to rebuild. A zero year
// means the current UTC year.
type WeeklyReconcilePayload struct {
	Year int `json:"year"`
}

// NewWeeklyReconcileTask constructs the weekly reconciliation task.
func NewWeeklyReconcileTask(payload WeeklyReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWeeklyReconcile, data), nil
}

// HandleWeeklyReconcile returns the handler that rebuilds the weekly report
// right after the Friday cutoff rolls over, so the first Monday reader gets
// a warm cache.
func HandleWeeklyReconcile(service *reconcile.Service, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload WeeklyReconcilePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		year := payload.Year
		if year == 0 {
			year = time.Now().UTC().Year()
		}
		tracker := metrics.Track("weekly_reconcile")
		report, err := service.Refresh(ctx, year)
		if err != nil {
			logger.Error("weekly reconcile failed", slog.Int("year", year), slog.Any("error", err))
			return tracker.End(err)
		}
		logger.Info("weekly reconcile complete",
			slog.Int("year", year),
			slog.Time("cutoff", report.Cutoff),
			slog.Int("rows", len(report.Rows)))
		return tracker.End(nil)
	}
}
