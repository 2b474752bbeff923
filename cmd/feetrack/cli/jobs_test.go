package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feetrack/feetrack/jobs"
)

type stubEnqueuer struct {
	tasks []*asynq.Task
}

func (s *stubEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{ID: "abc", Type: task.Type(), Queue: jobs.QueueDefault}, nil
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestRunTriggerMetricsRefresh(t *testing.T) {
	enq := &stubEnqueuer{}
	cli := NewJobsCLIWith(enq, nil)
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)

	code := cli.Run(context.Background(), []string{"trigger", jobs.TaskMetricsRefresh, "-client", "42"}, stdout, stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Len(t, enq.tasks, 1)
	assert.JSONEq(t, `{"client_id":42}`, string(enq.tasks[0].Payload()))
	assert.Equal(t, "enqueued metrics:refresh id=abc queue=default\n", stdout.String())
}

func TestRunTriggerCleanupUsesRetention(t *testing.T) {
	enq := &stubEnqueuer{}
	code := NewJobsCLIWith(enq, nil).Run(context.Background(), []string{"trigger", jobs.TaskIdempotencyCleanup, "-retention", "48h"}, new(bytes.Buffer), new(bytes.Buffer))
	require.Equal(t, 0, code)
	assert.JSONEq(t, `{"retention_hours":48}`, string(enq.tasks[0].Payload()))
}

func TestRunTriggerErrors(t *testing.T) {
	cli := NewJobsCLIWith(&stubEnqueuer{}, nil)
	stderr := new(bytes.Buffer)

	assert.Equal(t, 1, cli.Run(context.Background(), []string{"trigger", "reports:build"}, nil, stderr))
	assert.Contains(t, stderr.String(), "unsupported job")

	assert.Equal(t, 1, cli.Run(context.Background(), []string{"trigger", jobs.TaskMetricsRefresh}, nil, stderr))
	assert.Equal(t, 2, cli.Run(context.Background(), []string{"trigger"}, nil, stderr))
	assert.Equal(t, 2, cli.Run(context.Background(), nil, nil, stderr))
	assert.Equal(t, 2, cli.Run(context.Background(), []string{"purge"}, nil, stderr))
}

func TestRunStats(t *testing.T) {
	cli := NewJobsCLIWith(nil, stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3, Retry: 1}})
	stdout := new(bytes.Buffer)
	require.Equal(t, 0, cli.Run(context.Background(), []string{"stats"}, stdout, nil))
	assert.JSONEq(t, `{"queue":"default","pending":3,"active":0,"scheduled":0,"retry":1,"archived":0}`, stdout.String())

	failing := NewJobsCLIWith(nil, stubInspector{err: errors.New("redis down")})
	assert.Equal(t, 1, failing.Run(context.Background(), []string{"stats"}, nil, new(bytes.Buffer)))
}

func TestCloseWithoutHandles(t *testing.T) {
	assert.NoError(t, NewJobsCLIWith(nil, nil).Close())
}
