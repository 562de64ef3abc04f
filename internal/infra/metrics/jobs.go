package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobsSubmittedTotal, jobsProcessedTotal, jobDurationSeconds) }

var jobsSubmittedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "swap_jobs_submitted_total",
		Help: "Total number of swap jobs accepted by the dispatcher.",
	},
)

var jobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "swap_jobs_processed_total",
		Help: "Total number of swap jobs processed, labeled by outcome.",
	},
	[]string{"status"}, // 'succeeded', 'failed'
)

var jobDurationSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "swap_job_duration_seconds",
		Help:    "Transformer execution duration distribution.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	},
	[]string{"status"},
)

func IncJobSubmitted() { jobsSubmittedTotal.Inc() }

func ObserveJob(status string, seconds float64) {
	jobsProcessedTotal.WithLabelValues(norm(status)).Inc()
	jobDurationSeconds.WithLabelValues(norm(status)).Observe(seconds)
}
