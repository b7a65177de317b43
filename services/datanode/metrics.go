package datanode

import (
	"sync"

	"github.com/bsv-blockchain/txgate/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusReceived            *prometheus.CounterVec
	prometheusProcessed           *prometheus.CounterVec
	prometheusMaterializeErrors   *prometheus.CounterVec
	prometheusMaterializeDuration *prometheus.HistogramVec
	prometheusReconnects          *prometheus.CounterVec
	prometheusConnected           *prometheus.GaugeVec
)

var prometheusMetricsInitOnce sync.Once

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txgate",
			Subsystem: "datanode",
			Name:      "received",
			Help:      "Number of transactions received from the stream",
		},
		[]string{"datanode"},
	)

	prometheusProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txgate",
			Subsystem: "datanode",
			Name:      "processed",
			Help:      "Number of transactions materialized",
		},
		[]string{"datanode"},
	)

	prometheusMaterializeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txgate",
			Subsystem: "datanode",
			Name:      "materialize_errors",
			Help:      "Number of transactions the materializer failed on, by error category",
		},
		[]string{"datanode", "category"},
	)

	prometheusMaterializeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "txgate",
			Subsystem: "datanode",
			Name:      "materialize_duration",
			Help:      "Histogram of the time spent materializing a transaction",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
		[]string{"datanode"},
	)

	prometheusReconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txgate",
			Subsystem: "datanode",
			Name:      "reconnects",
			Help:      "Number of lost or failed connections, by error category",
		},
		[]string{"datanode", "category"},
	)

	prometheusConnected = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "txgate",
			Subsystem: "datanode",
			Name:      "connected",
			Help:      "1 while the data node is connected to a source",
		},
		[]string{"datanode"},
	)
}
