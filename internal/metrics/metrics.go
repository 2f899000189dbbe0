// Package metrics exposes Prometheus metrics for backend calls and view actions.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records backend round trips and view-level outcomes.
type Collector struct {
	backendRequests *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	sectionToggles  *prometheus.CounterVec
	notifications   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postpilot_backend_requests_total",
			Help: "Backend requests by endpoint and status code (0 when no response was received).",
		}, []string{"endpoint", "status_code"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "postpilot_backend_request_duration_seconds",
			Help:    "Backend request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		sectionToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postpilot_section_toggles_total",
			Help: "Section visibility toggles by section.",
		}, []string{"section"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postpilot_notifications_total",
			Help: "Notifications raised by category and severity.",
		}, []string{"category", "severity"}),
	}

	reg.MustRegister(
		c.backendRequests,
		c.backendLatency,
		c.sectionToggles,
		c.notifications,
	)

	return c
}

func (c *Collector) RecordBackendRequest(endpoint string, status int, duration time.Duration) {
	c.backendRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	c.backendLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (c *Collector) RecordSectionToggle(section string) {
	c.sectionToggles.WithLabelValues(section).Inc()
}

func (c *Collector) RecordNotification(category, severity string) {
	c.notifications.WithLabelValues(category, severity).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
