// Package metrics exposes Prometheus collectors for the cache and the facade.
package metrics

import (
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successful computations and loads.
	OutcomeSuccess = "success"
	// OutcomeError labels failed computations and loads.
	OutcomeError = "error"
)

var (
	cacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "runlens",
			Name:      "cache_requests_total",
			Help:      "Result cache lookups, partitioned by metric and result.",
		},
		[]string{"metric", "result"},
	)

	computeDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "runlens",
			Name:      "compute_seconds",
			Help:      "Latency of one metric computation in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"metric", "outcome"},
	)

	loadDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "runlens",
			Name:      "load_seconds",
			Help:      "Latency of a bulk dashboard or analytics load in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"kind", "outcome"},
	)

	pushSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "runlens",
			Name:      "push_subscribers",
			Help:      "Connected websocket subscribers.",
		},
	)
)

// Register attaches runlens collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		cacheRequestsTotal,
		computeDurationSeconds,
		loadDurationSeconds,
		pushSubscribers,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// metricLabel is the metric part of a cache key such as "metrics:ALL".
func metricLabel(key string) string {
	name, _, _ := strings.Cut(key, ":")
	return name
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// CacheObserver records result cache events.
type CacheObserver struct{}

// Hit counts a fresh lookup.
func (CacheObserver) Hit(key string) {
	cacheRequestsTotal.WithLabelValues(metricLabel(key), "hit").Inc()
}

// Miss counts a lookup that led to a compute.
func (CacheObserver) Miss(key string) {
	cacheRequestsTotal.WithLabelValues(metricLabel(key), "miss").Inc()
}

// Computed records how long a compute took.
func (CacheObserver) Computed(key string, elapsed time.Duration, err error) {
	computeDurationSeconds.WithLabelValues(metricLabel(key), outcome(err)).Observe(max(elapsed, 0).Seconds())
}

// ObserveLoad records a bulk load duration and outcome.
func ObserveLoad(kind string, elapsed time.Duration, err error) {
	loadDurationSeconds.WithLabelValues(kind, outcome(err)).Observe(max(elapsed, 0).Seconds())
}

// SetSubscribers reports the number of push subscribers.
func SetSubscribers(n int) {
	pushSubscribers.Set(float64(n))
}
