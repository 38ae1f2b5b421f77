package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	JobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convoy_jobs_total",
			Help: "Total number of jobs by terminal status.",
		},
		[]string{"status"},
	)

	JobDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "convoy_job_duration_seconds",
			Help:    "Duration of jobs in seconds.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"status"},
	)

	JobsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "convoy_jobs_active",
			Help: "Number of currently running jobs.",
		},
	)

	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convoy_commands_total",
			Help: "Total number of commands executed by status.",
		},
		[]string{"status"},
	)

	CommandDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "convoy_command_duration_seconds",
			Help:    "Duration of device commands in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
		},
		[]string{"status"},
	)

	SessionsOpenedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convoy_sessions_opened_total",
			Help: "Total number of device sessions opened by protocol.",
		},
		[]string{"protocol"},
	)

	SessionFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convoy_session_failures_total",
			Help: "Total number of session failures by kind.",
		},
		[]string{"kind"},
	)
)

// Register registers all engine metrics with the
// registerer. Safe to call once per process.
func Register(r prometheus.Registerer) {
	r.MustRegister(
		JobsTotal,
		JobDurationSeconds,
		JobsActive,
		CommandsTotal,
		CommandDurationSeconds,
		SessionsOpenedTotal,
		SessionFailuresTotal,
	)
}
