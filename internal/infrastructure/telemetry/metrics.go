package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names
const (
	MetricJobsClaimedTotal      = "stoflow_jobs_claimed_total"
	MetricJobsFinishedTotal     = "stoflow_jobs_finished_total"
	MetricJobDurationSeconds    = "stoflow_job_duration_seconds"
	MetricJobsInFlight          = "stoflow_jobs_in_flight"
	MetricSweepAffectedTotal    = "stoflow_sweep_affected_total"
	MetricSweepErrorsTotal      = "stoflow_sweep_errors_total"
	MetricMarketplaceCallsTotal = "stoflow_marketplace_calls_total"
	MetricMarketplaceCallSecs   = "stoflow_marketplace_call_duration_seconds"
	MetricPluginSessions        = "stoflow_plugin_sessions"
)

// Job outcomes recorded by the runner
const (
	OutcomeCompleted = "completed"
	OutcomeRetried   = "retried"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
	OutcomeRequeued  = "requeued"
)

// Metrics is the Prometheus instrumentation of the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	jobsClaimed      *prometheus.CounterVec
	jobsFinished     *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
	jobsInFlight     prometheus.Gauge
	sweepAffected    *prometheus.CounterVec
	sweepErrors      *prometheus.CounterVec
	marketplaceCalls *prometheus.CounterVec
	marketplaceSecs  *prometheus.HistogramVec
	pluginSessions   prometheus.Gauge
}

// NewMetrics creates the collectors on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobsClaimed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricJobsClaimedTotal,
			Help: "Marketplace jobs claimed by the runner.",
		}, []string{"marketplace", "action"}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricJobsFinishedTotal,
			Help: "Marketplace job executions by outcome.",
		}, []string{"marketplace", "action", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricJobDurationSeconds,
			Help:    "Wall time of marketplace job executions.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"marketplace", "action"}),
		jobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricJobsInFlight,
			Help: "Marketplace jobs currently executing in this process.",
		}),
		sweepAffected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSweepAffectedTotal,
			Help: "Rows touched by maintenance sweeps.",
		}, []string{"task"}),
		sweepErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSweepErrorsTotal,
			Help: "Failed maintenance sweep tasks.",
		}, []string{"task"}),
		marketplaceCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricMarketplaceCallsTotal,
			Help: "Outbound marketplace calls by result.",
		}, []string{"marketplace", "operation", "result"}),
		marketplaceSecs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricMarketplaceCallSecs,
			Help:    "Latency of outbound marketplace calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"marketplace", "operation"}),
		pluginSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricPluginSessions,
			Help: "Connected Vinted plugin sessions.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.jobsClaimed,
		m.jobsFinished,
		m.jobDuration,
		m.jobsInFlight,
		m.sweepAffected,
		m.sweepErrors,
		m.marketplaceCalls,
		m.marketplaceSecs,
		m.pluginSessions,
	)
	return m
}

// Registry exposes the registry for extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// JobClaimed counts a claim and bumps the in-flight gauge
func (m *Metrics) JobClaimed(marketplace, action string) {
	if m == nil {
		return
	}
	m.jobsClaimed.WithLabelValues(marketplace, action).Inc()
	m.jobsInFlight.Inc()
}

// JobFinished records the outcome and duration of an execution
func (m *Metrics) JobFinished(marketplace, action, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.jobsInFlight.Dec()
	m.jobsFinished.WithLabelValues(marketplace, action, outcome).Inc()
	if outcome != OutcomeRequeued {
		m.jobDuration.WithLabelValues(marketplace, action).Observe(elapsed.Seconds())
	}
}

// SweepAffected adds n rows touched by a sweep task
func (m *Metrics) SweepAffected(task string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.sweepAffected.WithLabelValues(task).Add(float64(n))
}

// SweepFailed counts a failed sweep task
func (m *Metrics) SweepFailed(task string) {
	if m == nil {
		return
	}
	m.sweepErrors.WithLabelValues(task).Inc()
}

// MarketplaceCall records one outbound call
func (m *Metrics) MarketplaceCall(marketplace, operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.marketplaceCalls.WithLabelValues(marketplace, operation, result).Inc()
	m.marketplaceSecs.WithLabelValues(marketplace, operation).Observe(elapsed.Seconds())
}

// PluginSessions sets the connected plugin session count
func (m *Metrics) PluginSessions(n int) {
	if m == nil {
		return
	}
	m.pluginSessions.Set(float64(n))
}
