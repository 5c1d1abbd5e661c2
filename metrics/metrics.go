// Package metrics provides Prometheus metrics for the HTTP server and the
// shortage domain.
//
// HTTP metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// Domain metrics:
//   - similarity_lookups_total: Counter with outcome and cache labels
//   - pharmacy_searches_total: Counter with mode and outcome labels
//   - pharmacy_search_results: Histogram of pharmacies returned per search
//   - catalog_medicines: Gauge of medicines in the active catalog
//   - catalog_reloads_total: Counter with outcome label
//   - shortage_reports_total / shortage_alerts_total: Counters
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	SimilarityLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "similarity_lookups_total",
			Help: "Alternatives lookups by outcome (found, not_found, invalid, unavailable) and cache result",
		},
		[]string{"outcome", "cache"},
	)

	PharmacySearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmacy_searches_total",
			Help: "Pharmacy proximity searches by mode (location, coordinates) and outcome",
		},
		[]string{"mode", "outcome"},
	)

	PharmacySearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pharmacy_search_results",
			Help:    "Number of pharmacies returned per search",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	CatalogMedicines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_medicines",
			Help: "Medicines in the active catalog",
		},
	)

	CatalogReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_reloads_total",
			Help: "Catalog reload attempts by outcome",
		},
		[]string{"outcome"},
	)

	ShortageReportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortage_reports_total",
			Help: "Shortage reports received by report type",
		},
		[]string{"type"},
	)

	ShortageAlertsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shortage_alerts_total",
			Help: "Shortage alerts raised",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(SimilarityLookupsTotal)
	prometheus.MustRegister(PharmacySearchesTotal)
	prometheus.MustRegister(PharmacySearchResults)
	prometheus.MustRegister(CatalogMedicines)
	prometheus.MustRegister(CatalogReloadsTotal)
	prometheus.MustRegister(ShortageReportsTotal)
	prometheus.MustRegister(ShortageAlertsTotal)
}

// Handler exposes the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}
