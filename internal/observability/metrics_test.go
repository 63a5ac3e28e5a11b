package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestMetrics_Usable verifies that all Prometheus metrics can be used without
// panic, ensuring label dimensions match usage across client, http, and flow packages.
func TestMetrics_Usable(t *testing.T) {
	// Route uses path template to avoid cardinality
	HTTPRequestsTotal.WithLabelValues("GET", "/", "2xx").Inc()
	HTTPRequestDuration.WithLabelValues("POST", "/predict").Observe(0.01)
	HTTPRequestsInFlight.Inc()
	HTTPRequestsInFlight.Dec()
	PredictionAPICallsTotal.WithLabelValues("POST", "success").Inc()
	PredictionAPICallsTotal.WithLabelValues("GET", "server_error").Inc()
	PredictionAPIDuration.WithLabelValues("POST").Observe(0.1)
	PredictionFallbacksTotal.Inc()
	SubmissionsTotal.WithLabelValues("success").Inc()
	SubmissionsTotal.WithLabelValues("validation").Inc()
	SubmissionsTotal.WithLabelValues("blocked").Inc()
	AirportsLoaded.Set(70)
	RateLimitDeniedTotal.Inc()
}

// TestMetricsHandler_ServesPrometheusFormat verifies that MetricsHandler serves
// Prometheus text exposition format with correct HTTP status and metric output.
func TestMetricsHandler_ServesPrometheusFormat(t *testing.T) {
	handler := MetricsHandler()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("MetricsHandler status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "httpRequestsTotal") {
		t.Error("MetricsHandler response should contain metric output")
	}
	if !strings.Contains(body, "airportsLoaded") {
		t.Error("MetricsHandler response should contain airportsLoaded gauge")
	}
}
