package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestIDMiddleware(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Fatal("expected request id in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestRequestIDHonorsIncomingHeader(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "client-42" {
		t.Fatalf("expected client request id, got %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 200))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if len(seen) > 128 {
		t.Fatal("expected oversized request id to be replaced")
	}
}

func TestGetRequestIDWithoutMiddleware(t *testing.T) {
	if got := GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
	ctx := WithRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "job-7")
	if got := GetRequestID(ctx); got != "job-7" {
		t.Fatalf("expected job-7, got %q", got)
	}
}
