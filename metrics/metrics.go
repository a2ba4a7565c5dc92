package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PollCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pnodewatch",
			Subsystem: "poller",
			Name:      "cycles_total",
			Help:      "Total number of poll cycles by result",
		},
		[]string{"result"},
	)

	PollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pnodewatch",
			Subsystem: "poller",
			Name:      "cycle_duration_seconds",
			Help:      "Poll cycle duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		},
	)

	NodesByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pnodewatch",
			Subsystem: "network",
			Name:      "nodes",
			Help:      "Node count by status from the latest poll",
		},
		[]string{"status"},
	)

	StorageBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pnodewatch",
			Subsystem: "network",
			Name:      "storage_bytes",
			Help:      "Network storage totals from the latest poll",
		},
		[]string{"kind"}, // "capacity" or "used"
	)

	HistoryPoints = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pnodewatch",
			Subsystem: "history",
			Name:      "points",
			Help:      "Number of snapshots currently retained",
		},
	)
)

// Handler exposes the default registry for the /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
