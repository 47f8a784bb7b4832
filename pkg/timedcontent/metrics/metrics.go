// Package metrics exports cache and HTTP activity as Prometheus metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tendant/timed-content/pkg/timedcontent"
)

const namespace = "timedcontent"

// Collector holds the timed content metrics
type Collector struct {
	hits            *prometheus.CounterVec
	misses          *prometheus.CounterVec
	stores          *prometheus.CounterVec
	errors          *prometheus.CounterVec
	bucketSize      *prometheus.GaugeVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers the metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		hits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Lookups served from a full bucket",
		}, []string{"category"}),
		misses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Lookups that found the bucket below capacity",
		}, []string{"category"}),
		stores: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "stores_total",
			Help:      "Artifacts written to a bucket",
		}, []string{"category"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Failed cache operations",
		}, []string{"category", "operation"}),
		bucketSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "bucket_size",
			Help:      "Artifacts in the current bucket at the last lookup",
		}, []string{"category"}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route"}),
	}
}

// Hooks returns cache hooks that update the collector
func (c *Collector) Hooks() timedcontent.Hooks {
	return timedcontent.Hooks{
		OnHit: []timedcontent.HitHook{func(category timedcontent.Category, count int, key string) {
			c.hits.WithLabelValues(string(category)).Inc()
			c.bucketSize.WithLabelValues(string(category)).Set(float64(count))
		}},
		OnMiss: []timedcontent.MissHook{func(category timedcontent.Category, count int) {
			c.misses.WithLabelValues(string(category)).Inc()
			c.bucketSize.WithLabelValues(string(category)).Set(float64(count))
		}},
		OnStore: []timedcontent.StoreHook{func(category timedcontent.Category, key string) {
			c.stores.WithLabelValues(string(category)).Inc()
		}},
		OnError: []timedcontent.ErrorHook{func(category timedcontent.Category, operation string, err error) {
			c.errors.WithLabelValues(string(category), operation).Inc()
		}},
	}
}

// ObserveRequest records a completed HTTP request
func (c *Collector) ObserveRequest(method, route string, statusCode int, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
