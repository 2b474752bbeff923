package metrics

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feetrack/feetrack/internal/fees"
	jobmetrics "github.com/feetrack/feetrack/internal/jobs"
	"github.com/feetrack/feetrack/jobs"
)

func newTestJob(store Store) *RefreshJob {
	return NewRefreshJob(NewAggregator(store, nil), nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
}

func TestRefreshJobHandle(t *testing.T) {
	store := newFakeStore()
	store.payments[5] = []PaymentFact{{ID: 1, ReceivedDate: time.Now(), ActualFee: 99, Coverage: fees.MonthlyCoverage(1, 2024, 1, 2024)}}

	task, err := jobs.NewMetricsRefreshTask(5)
	require.NoError(t, err)
	require.NoError(t, newTestJob(store).Handle(context.Background(), task))

	_, ok := store.rows[5]
	assert.True(t, ok)
}

func TestRefreshJobRejectsBadPayload(t *testing.T) {
	job := newTestJob(newFakeStore())

	err := job.Handle(context.Background(), asynq.NewTask(jobs.TaskMetricsRefresh, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	zero, _ := json.Marshal(jobs.MetricsRefreshPayload{})
	err = job.Handle(context.Background(), asynq.NewTask(jobs.TaskMetricsRefresh, zero))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestRefreshJobHandleAll(t *testing.T) {
	store := newFakeStore()
	store.clients = []int64{1}
	store.payments[1] = []PaymentFact{{ID: 1, ReceivedDate: time.Now(), ActualFee: 1, Coverage: fees.MonthlyCoverage(1, 2024, 1, 2024)}}

	task, err := jobs.NewMetricsRefreshAllTask("")
	require.NoError(t, err)
	require.NoError(t, newTestJob(store).HandleAll(context.Background(), task))
	assert.Equal(t, 1, store.upserts)
}

func TestNewMetricsRefreshTaskRequiresClient(t *testing.T) {
	_, err := jobs.NewMetricsRefreshTask(0)
	assert.Error(t, err)
}
