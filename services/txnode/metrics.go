package txnode

import (
	"sync"

	"github.com/bsv-blockchain/txgate/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusReceived            prometheus.Counter
	prometheusAccepted            prometheus.Counter
	prometheusRejected            *prometheus.CounterVec
	prometheusPropagated          *prometheus.CounterVec
	prometheusValidationDuration  prometheus.Histogram
	prometheusPropagationDuration prometheus.Histogram
	prometheusSubscribers         prometheus.Gauge
	prometheusHTTPRequests        *prometheus.CounterVec
)

var prometheusMetricsInitOnce sync.Once

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txgate",
			Subsystem: "txnode",
			Name:      "received",
			Help:      "Number of transactions received",
		},
	)

	prometheusAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "txgate",
			Subsystem: "txnode",
			Name:      "accepted",
			Help:      "Number of transactions accepted",
		},
	)

	prometheusRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txgate",
			Subsystem: "txnode",
			Name:      "rejected",
			Help:      "Number of transactions rejected, by error code",
		},
		[]string{"error"},
	)

	prometheusPropagated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txgate",
			Subsystem: "txnode",
			Name:      "peer_writes",
			Help:      "Number of peer writes by outcome",
		},
		[]string{"outcome"},
	)

	prometheusValidationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "txgate",
			Subsystem: "txnode",
			Name:      "validation_duration",
			Help:      "Histogram of the time spent validating a transaction",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusPropagationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "txgate",
			Subsystem: "txnode",
			Name:      "propagation_duration",
			Help:      "Histogram of the time spent propagating a transaction to every peer",
			Buckets:   util.MetricsBucketsMilliLongSeconds,
		},
	)

	prometheusSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "txgate",
			Subsystem: "txnode",
			Name:      "subscribers",
			Help:      "Number of active subscriptions",
		},
	)

	prometheusHTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txgate",
			Subsystem: "txnode",
			Name:      "http_requests",
			Help:      "Number of HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)
}
