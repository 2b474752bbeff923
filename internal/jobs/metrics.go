// Package jobmetrics instruments the background task handlers.
package jobmetrics

import (
	"errors"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded on feetrack_jobs_total.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// Metrics holds the job collectors of one registry.
type Metrics struct {
	runs        *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	snapshots   *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the collectors on registerer, or once on the default
// registerer when it is nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer != nil {
		return register(registerer)
	}
	defaultOnce.Do(func() {
		defaultMetrics = register(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// Run times one task execution.
type Run struct {
	metrics *Metrics
	task    string
	started time.Time
}

// Start opens a Run for task. A nil Metrics yields a Run that records nothing.
func (m *Metrics) Start(task string) *Run {
	return &Run{metrics: m, task: task, started: time.Now()}
}

// Finish records the outcome of the run and returns err unchanged. Payloads
// refused with asynq.SkipRetry count as rejected, not failed.
func (r *Run) Finish(err error) error {
	if r == nil || r.metrics == nil || r.task == "" {
		return err
	}
	m := r.metrics
	outcome := OutcomeSuccess
	switch {
	case errors.Is(err, asynq.SkipRetry):
		outcome = OutcomeRejected
	case err != nil:
		outcome = OutcomeFailure
		m.failures.WithLabelValues(r.task).Inc()
	default:
		m.lastSuccess.WithLabelValues(r.task).SetToCurrentTime()
	}
	m.runs.WithLabelValues(r.task, outcome).Inc()
	m.duration.WithLabelValues(r.task).Observe(time.Since(r.started).Seconds())
	return err
}

// SnapshotsWritten counts client metrics snapshots upserted by the worker.
func (m *Metrics) SnapshotsWritten(n int) {
	m.addSnapshots("written", n)
}

// SnapshotsSkipped counts clients left untouched for having no live payments.
func (m *Metrics) SnapshotsSkipped(n int) {
	m.addSnapshots("skipped", n)
}

func (m *Metrics) addSnapshots(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.snapshots.WithLabelValues(result).Add(float64(n))
}

func register(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feetrack_jobs_total",
			Help: "Task executions by task type and outcome.",
		}, []string{"job", "outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feetrack_jobs_failures_total",
			Help: "Task executions that returned a retryable error.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "feetrack_job_duration_seconds",
			Help:    "Task execution time in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "feetrack_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful execution per task type.",
		}, []string{"job"}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feetrack_client_metrics_snapshots_total",
			Help: "Client metrics refreshes by result.",
		}, []string{"result"}),
	}
	registerer.MustRegister(m.runs, m.failures, m.duration, m.lastSuccess, m.snapshots)
	return m
}
