package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	TrendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trendpull",
			Subsystem: "trend",
			Name:      "latency_seconds",
			Help:      "Latency of trend endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	TrendErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendpull",
			Subsystem: "trend",
			Name:      "errors_total",
			Help:      "Errors by trend endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(TrendLatency, TrendErrors)
	})
}
