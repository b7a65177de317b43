package validator

import (
	"context"
	"sync"
	"time"

	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state"
	"github.com/bsv-blockchain/txgate/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusValidations        *prometheus.CounterVec
	prometheusValidationDuration *prometheus.HistogramVec
)

var prometheusMetricsInitOnce sync.Once

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txgate",
			Subsystem: "validator",
			Name:      "validations",
			Help:      "Number of validator runs by outcome",
		},
		[]string{
			"validator", // name given to Instrument
			"outcome",   // "valid" or the error code
		},
	)

	prometheusValidationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "txgate",
			Subsystem: "validator",
			Name:      "validation_duration",
			Help:      "Histogram of validator run time",
			Buckets:   util.MetricsBucketsMicroSeconds,
		},
		[]string{"validator"},
	)
}

// Instrument counts the outcomes and run time of v under name.
func Instrument(name string, v Validator) Validator {
	initPrometheusMetrics()

	return func(ctx context.Context, tx model.Transaction, read state.Reader) *Result {
		start := time.Now()

		r := v(ctx, tx, read)

		prometheusValidationDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

		outcome := "valid"
		if r == nil || !r.Valid {
			outcome = orInvalid(r).Error
		}

		prometheusValidations.WithLabelValues(name, outcome).Inc()

		return r
	}
}
