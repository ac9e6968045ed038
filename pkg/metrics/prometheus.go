package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	barsProcessed *prometheus.CounterVec
	signalsSent   *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	trailingStop  *prometheus.GaugeVec
	clusterRuns   *prometheus.CounterVec
	clusterIters  *prometheus.HistogramVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		barsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpull_bars_processed_total",
				Help: "Total number of bars fed to the trend engine",
			},
			[]string{"symbol"},
		),
		signalsSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpull_signals_sent_total",
				Help: "Total number of flip signals routed to a backend",
			},
			[]string{"backend", "symbol", "direction"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trendpull_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		trailingStop: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trendpull_trailing_stop",
				Help: "Current adaptive trailing stop for a symbol",
			},
			[]string{"symbol"},
		),
		clusterRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpull_cluster_runs_total",
				Help: "Total number of k-means passes",
			},
			[]string{"symbol"},
		),
		clusterIters: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trendpull_cluster_iterations",
				Help:    "Iterations until k-means convergence",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trendpull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordBarProcessed counts one bar through the engine.
func (r *Recorder) RecordBarProcessed(symbol string) {
	r.barsProcessed.WithLabelValues(symbol).Inc()
}

// RecordSignal records a flip signal routed to a backend.
func (r *Recorder) RecordSignal(backend, symbol, direction string) {
	r.signalsSent.WithLabelValues(backend, symbol, direction).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordTrailingStop records the current stop level for a symbol.
func (r *Recorder) RecordTrailingStop(symbol string, value float64) {
	r.trailingStop.WithLabelValues(symbol).Set(value)
}

// RecordClusterRun counts one clustering pass and its convergence cost.
func (r *Recorder) RecordClusterRun(symbol string, iterations int) {
	r.clusterRuns.WithLabelValues(symbol).Inc()
	r.clusterIters.WithLabelValues(symbol).Observe(float64(iterations))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
