// Package metrics exposes Prometheus counters for the client core.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Route resolution outcomes
const (
	RouteApplied   = "applied"
	RouteDiscarded = "discarded"
	RouteFailed    = "failed"
)

// Recorder is what services and clients report to.
type Recorder interface {
	RecordRoute(outcome string)
	RecordBooking(outcome string)
	RecordBackendCall(endpoint string, status string, duration time.Duration)
}

type Collector struct {
	routes       *prometheus.CounterVec
	bookings     *prometheus.CounterVec
	backendCalls *prometheus.CounterVec
	backendTime  *prometheus.HistogramVec
	registry     *prometheus.Registry
}

// NewCollector registers the client metrics on reg.
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carnest",
			Name:      "route_resolutions_total",
			Help:      "Route resolutions by outcome",
		}, []string{"outcome"}),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carnest",
			Name:      "booking_attempts_total",
			Help:      "Booking confirmations by outcome",
		}, []string{"outcome"}),
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carnest",
			Name:      "backend_requests_total",
			Help:      "Backend API requests by endpoint and status",
		}, []string{"endpoint", "status"}),
		backendTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "carnest",
			Name:      "backend_request_duration_seconds",
			Help:      "Backend API latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		registry: reg,
	}

	reg.MustRegister(c.routes, c.bookings, c.backendCalls, c.backendTime)
	return c
}

func (c *Collector) RecordRoute(outcome string) {
	c.routes.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordBooking(outcome string) {
	c.bookings.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordBackendCall(endpoint string, status string, duration time.Duration) {
	c.backendCalls.WithLabelValues(endpoint, status).Inc()
	c.backendTime.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRoute(string)                              {}
func (Nop) RecordBooking(string)                            {}
func (Nop) RecordBackendCall(string, string, time.Duration) {}
