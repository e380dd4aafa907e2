package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts processed transactions and executed tasks. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	txs      *prometheus.CounterVec
	tasks    prometheus.Counter
	height   prometheus.Gauge
}

// NewMetrics returns metrics registered with a fresh registry.
func NewMetrics() *Metrics {
	txs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weft",
		Name:      "transactions_total",
		Help:      "Total number of processed transactions",
	}, []string{"call", "path", "result"})

	tasks := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "weft",
		Name:      "scheduled_tasks_executed_total",
		Help:      "Total number of scheduled tasks executed at the beginning of a block",
	})

	height := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "weft",
		Name:      "block_height",
		Help:      "Height of the block currently processed",
	})

	r := prometheus.NewRegistry()
	r.MustRegister(txs, tasks, height)

	return &Metrics{
		registry: r,
		txs:      txs,
		tasks:    tasks,
		height:   height,
	}
}

// Handler returns an HTTP handler exposing all collected metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeTx(call, path string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.txs.WithLabelValues(call, path, result).Inc()
}

func (m *Metrics) observeTick(height int64, executed int) {
	if m == nil {
		return
	}
	m.height.Set(float64(height))
	m.tasks.Add(float64(executed))
}
