// Package observability wires Prometheus metrics and OpenTelemetry tracing
// for the fos service.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics of the resection engine and its
// transports. It satisfies resection.Recorder.
type Collector struct {
	gatherer prometheus.Gatherer

	Resections         *prometheus.CounterVec
	ResectionDurations *prometheus.HistogramVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDurations      *prometheus.HistogramVec
	NATSRequests       *prometheus.CounterVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	resections, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fos_resections_total",
		Help: "Resections solved, labeled by model, method, and outcome (ok or error kind).",
	}, []string{"model", "method", "outcome"}), "fos_resections_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fos_resection_duration_seconds",
		Help:    "Resection solve latency in seconds.",
		Buckets: []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 5e-3, 0.01},
	}, []string{"model", "method"}), "fos_resection_duration_seconds")
	if err != nil {
		return nil, err
	}

	httpRequests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fos_http_requests_total",
		Help: "HTTP requests handled, labeled by method, route, and status code.",
	}, []string{"method", "path", "status"}), "fos_http_requests_total")
	if err != nil {
		return nil, err
	}

	httpDurations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fos_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"}), "fos_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	natsRequests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fos_nats_requests_total",
		Help: "NATS requests handled, labeled by subject and reply code.",
	}, []string{"subject", "code"}), "fos_nats_requests_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:           gatherer,
		Resections:         resections,
		ResectionDurations: durations,
		HTTPRequests:       httpRequests,
		HTTPDurations:      httpDurations,
		NATSRequests:       natsRequests,
	}, nil
}

// ObserveResection records one engine solve.
func (c *Collector) ObserveResection(model, method, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Resections.WithLabelValues(model, method, outcome).Inc()
	c.ResectionDurations.WithLabelValues(model, method).Observe(elapsed.Seconds())
}

// ObserveHTTP records one handled HTTP request.
func (c *Collector) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, path, fmt.Sprint(status)).Inc()
	c.HTTPDurations.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveNATS records one handled NATS request.
func (c *Collector) ObserveNATS(subject string, code int) {
	if c == nil {
		return
	}
	c.NATSRequests.WithLabelValues(subject, fmt.Sprint(code)).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
