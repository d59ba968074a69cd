package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trendpull",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of stock API endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendpull",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by stock API endpoint",
		},
		[]string{"endpoint", "code"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendpull",
			Subsystem: "api",
			Name:      "cache_lookups_total",
			Help:      "Report cache lookups by result",
		},
		[]string{"result"},
	)
)

// Register adds the endpoint collectors to reg once.
func Register(reg prometheus.Registerer) {
	once.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(EndpointLatency, EndpointErrors, CacheLookups)
	})
}

// Observe records the latency since start for endpoint.
func Observe(endpoint string, start time.Time) {
	EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// Fail counts an error response for endpoint.
func Fail(endpoint, code string) {
	EndpointErrors.WithLabelValues(endpoint, code).Inc()
}

// CacheResult counts a cache hit or miss.
func CacheResult(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(result).Inc()
}
