package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesJobMetrics(t *testing.T) {
	metrics := NewMetrics()
	_ = metrics.Jobs().Start("metrics:refresh").Finish(nil)

	body := scrape(t, metrics)
	if !strings.Contains(body, `feetrack_jobs_total{job="metrics:refresh",outcome="success"} 1`) {
		t.Fatalf("expected job counter, got: %s", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected go runtime collector, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/payments/{id}")

	req := httptest.NewRequest(http.MethodGet, "/payments/1", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, `feetrack_http_requests_total{code="418",method="GET",route="/payments/{id}"} 1`) {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, `feetrack_http_request_duration_seconds_bucket{route="/payments/{id}"`) {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
	if !strings.Contains(body, `feetrack_http_response_bytes_total{route="/payments/{id}"} 15`) {
		t.Fatalf("expected response bytes to be counted, got: %s", body)
	}
	if !strings.Contains(body, "feetrack_http_in_flight_requests 0") {
		t.Fatalf("expected in-flight gauge to settle at zero, got: %s", body)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if m.Jobs() != nil {
		t.Fatal("expected nil job metrics")
	}
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	if m.Middleware(next) == nil {
		t.Fatal("expected passthrough handler")
	}
}
