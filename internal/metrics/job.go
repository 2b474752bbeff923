package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/feetrack/feetrack/internal/jobs"
	"github.com/feetrack/feetrack/jobs"
)

// RefreshJob serves the metrics refresh tasks.
type RefreshJob struct {
	aggregator *Aggregator
	logger     *slog.Logger
	metrics    *jobmetrics.Metrics
}

// NewRefreshJob constructs the task handlers. Nil metrics fall back to the
// process default registry.
func NewRefreshJob(aggregator *Aggregator, logger *slog.Logger, m *jobmetrics.Metrics) *RefreshJob {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = jobmetrics.NewMetrics(nil)
	}
	return &RefreshJob{aggregator: aggregator, logger: logger, metrics: m}
}

// Handle processes jobs.TaskMetricsRefresh.
func (j *RefreshJob) Handle(ctx context.Context, task *asynq.Task) (err error) {
	if j == nil || j.aggregator == nil {
		return errors.New("metrics refresh: handler not configured")
	}
	run := j.metrics.Start(jobs.TaskMetricsRefresh)
	defer func() { err = run.Finish(err) }()

	var payload jobs.MetricsRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil || payload.ClientID <= 0 {
		return asynq.SkipRetry
	}

	_, written, err := j.aggregator.Recompute(ctx, payload.ClientID)
	if err != nil {
		j.logger.Error("metrics refresh", slog.Int64("client_id", payload.ClientID), slog.Any("error", err))
		return err
	}
	if written {
		j.metrics.SnapshotsWritten(1)
	} else {
		j.metrics.SnapshotsSkipped(1)
	}
	j.logger.Info("metrics refreshed", slog.Int64("client_id", payload.ClientID), slog.Bool("written", written))
	return nil
}

// HandleAll processes jobs.TaskMetricsRefreshAll.
func (j *RefreshJob) HandleAll(ctx context.Context, task *asynq.Task) (err error) {
	if j == nil || j.aggregator == nil {
		return errors.New("metrics refresh all: handler not configured")
	}
	run := j.metrics.Start(jobs.TaskMetricsRefreshAll)
	defer func() { err = run.Finish(err) }()

	var payload jobs.MetricsRefreshAllPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	logger := j.logger.With(slog.String("source", payload.Source))
	written, err := j.aggregator.RecomputeAll(ctx)
	j.metrics.SnapshotsWritten(written)
	if err != nil {
		logger.Error("metrics refresh all", slog.Int("written", written), slog.Any("error", err))
		return err
	}
	logger.Info("metrics refresh all complete", slog.Int("written", written))
	return nil
}
