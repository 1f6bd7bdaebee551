package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics sink shared by the buses and the store wrapper.
type Recorder interface {
	StartTimer(metric, label string) Timer
	Increment(metric, label string)
}

// Timer measures one operation; Stop records the elapsed time.
type Timer interface {
	Stop()
}

// NopRecorder drops every measurement.
type NopRecorder struct{}

func (NopRecorder) StartTimer(string, string) Timer { return nopTimer{} }
func (NopRecorder) Increment(string, string)        {}

type nopTimer struct{}

func (nopTimer) Stop() {}

// Collector holds the Prometheus metrics of the application. Each collector
// owns its registry so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Count of queries, commands, store calls and cache lookups by outcome",
		},
		[]string{"metric", "label"},
	)

	operationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of queries, commands and store calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"metric", "label"},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		operations,
		operationDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Collector{
		registry:          registry,
		HTTPRequests:      httpRequests,
		HTTPDuration:      httpDuration,
		Operations:        operations,
		OperationDuration: operationDuration,
	}
}

// Increment implements Recorder
func (c *Collector) Increment(metric, label string) {
	c.Operations.WithLabelValues(metric, label).Inc()
}

// StartTimer implements Recorder
func (c *Collector) StartTimer(metric, label string) Timer {
	return &promTimer{
		observer: c.OperationDuration.WithLabelValues(metric, label),
		start:    time.Now(),
	}
}

// ObserveHTTP records one served request.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

type promTimer struct {
	observer prometheus.Observer
	start    time.Time
}

func (t *promTimer) Stop() {
	t.observer.Observe(time.Since(t.start).Seconds())
}
