package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation.
	HTTPRequestsInFlight prometheus.Gauge

	// Prediction API call rate by HTTP method and result. Watch for: error vs success ratio per method.
	PredictionAPICallsTotal *prometheus.CounterVec

	// Prediction API latency per call. Watch for: p95 > 2s (upstream degradation), p99 near timeout.
	PredictionAPIDuration *prometheus.HistogramVec

	// POST attempts that fell back to GET. Watch for: sustained rate = POST path broken upstream.
	PredictionFallbacksTotal prometheus.Counter

	// Submissions by outcome (success, failure, validation, blocked). Watch for: failure share.
	SubmissionsTotal *prometheus.CounterVec

	// Size of the loaded airport list (0 until the initial fetch succeeds).
	AirportsLoaded prometheus.Gauge

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	PredictionAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictionApiCallsTotal",
			Help: "Total number of prediction API calls",
		},
		[]string{"method", "status"},
	)
	PredictionAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "predictionApiDurationSeconds",
			Help:    "Prediction API latency in seconds (per call)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)
	PredictionFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "predictionFallbacksTotal",
			Help: "Total number of POST prediction attempts that fell back to GET",
		},
	)
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissionsTotal",
			Help: "Prediction submissions by outcome (success, failure, validation, blocked)",
		},
		[]string{"outcome"},
	)
	AirportsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "airportsLoaded",
			Help: "Number of airports loaded from the prediction API (0 = load pending or failed)",
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		PredictionAPICallsTotal, PredictionAPIDuration, PredictionFallbacksTotal,
		SubmissionsTotal, AirportsLoaded,
		RateLimitDeniedTotal,
	)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
