package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"workpay/internal/platform/metrics"
)

func TestLoggerRecordsMetrics(t *testing.T) {
	collector := metrics.New()
	handler := Logger(collector)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))

	snap := collector.Snapshot()
	if snap["requestsTotal"].(uint64) != 2 {
		t.Fatalf("expected 2 requests, got %v", snap["requestsTotal"])
	}
	if snap["errorsTotal"].(uint64) != 2 {
		t.Fatalf("expected 2 errors, got %v", snap["errorsTotal"])
	}
}
