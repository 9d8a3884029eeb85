// Package iometrics keeps Prometheus metrics of upstream calls, paging
// and the HTTP surface.
package iometrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all collectors of the application. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	pagesFetched     prometheus.Counter
	recordsFetched   prometheus.Counter
	httpRequests     *prometheus.CounterVec
}

// New creates metrics registered in a new registry.
func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.upstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gnflore_upstream_requests_total",
			Help: "Requests to upstream services by outcome",
		},
		[]string{"service", "outcome"}, // service: gbif, geo; outcome: ok, http_error, transport_error, decode_error
	)
	m.upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gnflore_upstream_request_duration_seconds",
			Help:    "Duration of upstream requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	m.pagesFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gnflore_occurrence_pages_total",
		Help: "Occurrence pages fetched by aggregation runs",
	})
	m.recordsFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gnflore_occurrence_records_total",
		Help: "Occurrence records received from the occurrence search",
	})
	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gnflore_http_requests_total",
			Help: "Requests served by the HTTP API",
		},
		[]string{"path", "status_code"},
	)

	collectors := []prometheus.Collector{
		m.upstreamRequests,
		m.upstreamDuration,
		m.pagesFetched,
		m.recordsFetched,
		m.httpRequests,
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry returns the registry of the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the metrics in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveUpstream records one upstream request.
func (m *Metrics) ObserveUpstream(service, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(service, outcome).Inc()
	m.upstreamDuration.WithLabelValues(service).Observe(d.Seconds())
}

// AddPage records a fetched occurrence page.
func (m *Metrics) AddPage() {
	if m == nil {
		return
	}
	m.pagesFetched.Inc()
}

// AddRecords records the number of occurrence records in a page.
func (m *Metrics) AddRecords(n int) {
	if m == nil {
		return
	}
	m.recordsFetched.Add(float64(n))
}

// ObserveHTTP records one served API request.
func (m *Metrics) ObserveHTTP(path string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(path, strconv.Itoa(status)).Inc()
}
