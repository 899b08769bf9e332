package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"workpay/internal/domain/auth"
)

var noContent = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func loginRequest(email, remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"`+email+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWindowCounterTake(t *testing.T) {
	c := newWindowCounter(2, time.Minute, nil)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if d := c.take("k", start); !d.allowed || d.remaining != 1 {
		t.Fatalf("first take: %+v", d)
	}
	if d := c.take("k", start.Add(time.Second)); !d.allowed || d.remaining != 0 {
		t.Fatalf("second take: %+v", d)
	}
	d := c.take("k", start.Add(2*time.Second))
	if d.allowed {
		t.Fatal("third take in the window should be refused")
	}
	if d.resetIn != 58*time.Second {
		t.Fatalf("expected 58s to reset, got %s", d.resetIn)
	}
	if d := c.take("k", start.Add(61*time.Second)); !d.allowed {
		t.Fatal("take after the window should be allowed")
	}
}

func TestWindowCounterSweepsExpiredKeys(t *testing.T) {
	c := newWindowCounter(1, time.Minute, nil)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c.take("a", start)
	c.take("b", start)

	c.take("c", start.Add(2*time.Minute))
	if _, ok := c.hits["a"]; ok {
		t.Fatal("expected expired key a to be swept")
	}
	if len(c.hits) != 1 {
		t.Fatalf("expected only the fresh key, got %d", len(c.hits))
	}
}

func TestRateLimitCountsActorAcrossAddresses(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent)
	ctx := WithUser(context.Background(), auth.UserContext{UserID: "user-1", Role: auth.RoleFinance})

	first := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/runs/r1/lock", nil).WithContext(ctx)
	first.RemoteAddr = "198.51.100.11:2222"
	if rec := serve(limited, first); rec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/runs/r1/lock", nil).WithContext(ctx)
	second.RemoteAddr = "198.51.100.12:3333"
	if rec := serve(limited, second); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by user, got %d", rec.Code)
	}
}

func TestRateLimitFallsBackToIP(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent)

	if rec := serve(limited, loginRequest("a@example.com", "203.0.113.10:4444")); rec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}
	rec := serve(limited, loginRequest("b@example.com", "203.0.113.10:5555"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by ip, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" || rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatal("expected retry metadata headers")
	}
}

func TestSensitiveLoginCountsPerEmail(t *testing.T) {
	// baseLimit 4 gives one login per window for each counter.
	limited := SensitiveMutationRateLimit(4, time.Minute)(noContent)

	if rec := serve(limited, loginRequest("ops@example.com", "192.0.2.1:1000")); rec.Code != http.StatusNoContent {
		t.Fatalf("expected first login to pass, got %d", rec.Code)
	}
	if rec := serve(limited, loginRequest("OPS@example.com", "192.0.2.2:1000")); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected same email from another ip to be throttled, got %d", rec.Code)
	}
}

func TestSensitiveLimitSkipsReads(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(noContent)
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payroll/runs", nil)
		req.RemoteAddr = "198.51.100.40:8888"
		if rec := serve(limited, req); rec.Code != http.StatusNoContent {
			t.Fatalf("read %d should bypass the sensitive limit, got %d", i+1, rec.Code)
		}
	}

	ctx := WithUser(context.Background(), auth.UserContext{UserID: "finance-1", Role: auth.RoleFinance})
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/runs/r1/lock", nil).WithContext(ctx)
		rec := serve(limited, req)
		if i < 2 && rec.Code != http.StatusNoContent {
			t.Fatalf("lock %d should pass, got %d", i+1, rec.Code)
		}
		if i == 2 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("third lock should be throttled, got %d", rec.Code)
		}
	}
}

func TestSensitiveRateScopeRoutes(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   sensitiveScope
	}{
		{http.MethodPost, "/api/v1/auth/login", scopeLogin},
		{http.MethodPost, "/api/v1/payroll/runs/r1/snapshot", scopeActor},
		{http.MethodPost, "/api/v1/payroll/runs/r1/lock", scopeActor},
		{http.MethodPost, "/api/v1/payroll/runs/r1/submit", scopeNone},
		{http.MethodPost, "/api/v1/documents/payroll/r1/payslips", scopeActor},
		{http.MethodPost, "/api/v1/leave/requests/l1/approve", scopeActor},
		{http.MethodPost, "/api/v1/leave/requests/l1/reject", scopeActor},
		{http.MethodPost, "/api/v1/attendance/normalize", scopeActor},
		{http.MethodPost, "/api/v1/attendance/normalize/extra", scopeNone},
		{http.MethodGet, "/api/v1/payroll/runs/r1/snapshot", scopeNone},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if got := sensitiveRateScope(req); got != tc.want {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.want, got)
		}
	}
}
