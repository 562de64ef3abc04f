package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(sweeperDeletedTotal, sweeperErrorsTotal) }

var sweeperDeletedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "retention_deleted_total",
		Help: "Items removed by the retention sweeper.",
	},
	[]string{"kind"}, // 'partition', 'job', 'file'
)

var sweeperErrorsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "retention_errors_total",
		Help: "Per-item deletion failures skipped by the sweeper.",
	},
)

func IncSwept(kind string, n int) {
	sweeperDeletedTotal.WithLabelValues(norm(kind)).Add(float64(n))
}

func IncSweepError() { sweeperErrorsTotal.Inc() }
