package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application's Prometheus collectors
type Metrics struct {
	// HTTPRequestsTotal counts HTTP requests by method, path and status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes request latency by method and path
	HTTPRequestDuration *prometheus.HistogramVec

	// VendorCallsTotal counts vendor operations by vendor, operation and outcome
	VendorCallsTotal *prometheus.CounterVec

	// WakeDuration observes how long wake-and-poll sequences take
	WakeDuration prometheus.Histogram
}

const namespace = "voltbridge"

// New creates and registers the application metrics on the given registerer
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5, 10, 35},
			},
			[]string{"method", "path"},
		),
		VendorCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "vendor_calls_total",
				Help:      "Vendor API operations by outcome",
			},
			[]string{"vendor", "operation", "outcome"},
		),
		WakeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "wake_duration_seconds",
				Help:      "Duration of wake-and-poll sequences",
				Buckets:   []float64{1, 2, 5, 10, 20, 30, 35},
			},
		),
	}
}

// ObserveVendorCall records one vendor operation outcome
func (m *Metrics) ObserveVendorCall(vendor, operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.VendorCallsTotal.WithLabelValues(vendor, operation, outcome).Inc()
}
