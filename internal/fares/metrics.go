package fares

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	calculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fare_calculations_total",
		Help: "Fare calculations by outcome and whether a surge rule applied",
	}, []string{"result", "surge"})

	fareTotalAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fare_total_amount",
		Help:    "Total fare of successful calculations, in currency units",
		Buckets: prometheus.ExponentialBuckets(1000, 2, 12), // 1k to ~2M
	})

	surgeMultiplierApplied = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fare_surge_multiplier",
		Help:    "Surge multiplier applied to calculated fares",
		Buckets: []float64{1, 1.25, 1.5, 1.75, 2, 2.5, 3, 4, 5},
	})

	surgeAmbiguousTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fare_surge_ambiguous_total",
		Help: "Surge resolutions where more than one rule matched",
	})

	configRotationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fare_config_rotations_total",
		Help: "Fare configuration rotations by result",
	}, []string{"result"})

	configCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fare_config_cache_requests_total",
		Help: "Active configuration cache lookups by result (hit, miss, error)",
	}, []string{"result"})

	storeOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fare_store_operation_duration_seconds",
		Help:    "Latency of fare store operations",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	}, []string{"store", "operation", "result"})
)

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func recordStoreOperation(store, operation string, d time.Duration, err error) {
	storeOperationDuration.WithLabelValues(store, operation, resultLabel(err)).Observe(d.Seconds())
}

func recordCalculation(calc *FareCalculation, err error) {
	if err != nil {
		calculationsTotal.WithLabelValues("error", "false").Inc()
		return
	}
	surged := "false"
	if calc.SurgeRuleID != "" {
		surged = "true"
	}
	calculationsTotal.WithLabelValues("success", surged).Inc()
	fareTotalAmount.Observe(float64(calc.TotalFare))
	surgeMultiplierApplied.Observe(calc.SurgeMultiplier)
}
