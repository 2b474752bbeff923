package jobs

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskMetricsRefresh recomputes the metrics snapshot of one client.
	TaskMetricsRefresh = "metrics:refresh"
	// TaskMetricsRefreshAll recomputes the snapshot of every live client.
	TaskMetricsRefreshAll = "metrics:refresh_all"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// MetricsRefreshPayload identifies the client to refresh.
type MetricsRefreshPayload struct {
	ClientID int64 `json:"client_id"`
}

// MetricsRefreshAllPayload carries the trigger source for logging.
type MetricsRefreshAllPayload struct {
	Source string `json:"source"`
}

// IdempotencyCleanupPayload sets how long keys are retained.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewMetricsRefreshTask constructs a per-client refresh task.
func NewMetricsRefreshTask(clientID int64) (*asynq.Task, error) {
	if clientID <= 0 {
		return nil, errors.New("jobs: client id required")
	}
	data, err := json.Marshal(MetricsRefreshPayload{ClientID: clientID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMetricsRefresh, data), nil
}

// NewMetricsRefreshAllTask constructs the sweep task used by the scheduler.
func NewMetricsRefreshAllTask(source string) (*asynq.Task, error) {
	if source == "" {
		source = "cron"
	}
	data, err := json.Marshal(MetricsRefreshAllPayload{Source: source})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMetricsRefreshAll, data), nil
}

// NewIdempotencyCleanupTask constructs the key purge task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	hours := int(retention / time.Hour)
	if hours <= 0 {
		return nil, errors.New("jobs: retention must be at least one hour")
	}
	data, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: hours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
