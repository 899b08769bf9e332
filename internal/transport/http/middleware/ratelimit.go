package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"workpay/internal/transport/http/api"
	"workpay/internal/transport/http/shared"
)

// RateKeyFunc names the caller a request is counted against.
type RateKeyFunc func(r *http.Request) string

type RateLimitOption func(*windowCounter)

// WithKeyFunc overrides the default actor-then-IP key.
func WithKeyFunc(fn RateKeyFunc) RateLimitOption {
	return func(c *windowCounter) {
		if fn != nil {
			c.key = fn
		}
	}
}

// windowCounter counts requests per key in fixed windows.
type windowCounter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	key       RateKeyFunc
	hits      map[string]*windowState
	lastSweep time.Time
}

type windowState struct {
	count   int
	resetAt time.Time
}

type rateDecision struct {
	allowed   bool
	remaining int
	resetIn   time.Duration
}

func newWindowCounter(limit int, window time.Duration, key RateKeyFunc) *windowCounter {
	if key == nil {
		key = actorKey
	}
	return &windowCounter{limit: limit, window: window, key: key, hits: map[string]*windowState{}}
}

func (c *windowCounter) take(key string, now time.Time) rateDecision {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastSweep) >= c.window {
		for k, st := range c.hits {
			if now.After(st.resetAt) {
				delete(c.hits, k)
			}
		}
		c.lastSweep = now
	}

	st, ok := c.hits[key]
	if !ok || now.After(st.resetAt) {
		st = &windowState{resetAt: now.Add(c.window)}
		c.hits[key] = st
	}
	st.count++
	return rateDecision{
		allowed:   st.count <= c.limit,
		remaining: max(c.limit-st.count, 0),
		resetIn:   st.resetAt.Sub(now),
	}
}

// admit writes the rate headers and reports whether the request may continue.
// A rejected request has already been answered with 429.
func (c *windowCounter) admit(w http.ResponseWriter, r *http.Request) bool {
	if c.limit <= 0 {
		return true
	}
	key := c.key(r)
	if key == "" {
		key = ipKey(r)
	}
	d := c.take(key, time.Now())
	reset := ceilSeconds(d.resetIn)

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(c.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(reset))
	if d.allowed {
		return true
	}

	w.Header().Set("Retry-After", strconv.Itoa(max(reset, 1)))
	slog.Warn("rate limit exceeded", "key", key, "method", r.Method, "path", r.URL.Path, "limit", c.limit)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

// RateLimit applies one budget per caller to every request.
func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	counter := newWindowCounter(limit, window, actorKey)
	for _, opt := range opts {
		opt(counter)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if counter.admit(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// SensitiveMutationRateLimit tightens the budget on login and on the payroll
// operations that freeze or publish data. Login is counted per IP and per
// email; the other routes per actor.
func SensitiveMutationRateLimit(baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	loginLimit := max(baseLimit/4, 1)
	loginByIP := newWindowCounter(loginLimit, window, ipKey)
	loginByEmail := newWindowCounter(loginLimit, window, loginEmailKey)
	byActor := newWindowCounter(max(baseLimit/2, 1), window, actorKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch sensitiveRateScope(r) {
			case scopeLogin:
				if !loginByIP.admit(w, r) || !loginByEmail.admit(w, r) {
					return
				}
			case scopeActor:
				if !byActor.admit(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func actorKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.UserID
	}
	return ipKey(r)
}

func ipKey(r *http.Request) string {
	return "ip:" + shared.ClientIP(r)
}

// loginEmailKey peeks at the login body and restores it for the handler.
func loginEmailKey(r *http.Request) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ipKey(r)
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return ipKey(r)
	}
	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(raw, &body) != nil || strings.TrimSpace(body.Email) == "" {
		return ipKey(r)
	}
	return "email:" + strings.ToLower(strings.TrimSpace(body.Email))
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

type sensitiveScope int

const (
	scopeNone sensitiveScope = iota
	scopeLogin
	scopeActor
)

// sensitiveRoutes match on the path below /api/v1. An empty suffix means an
// exact match on prefix.
var sensitiveRoutes = []struct {
	prefix string
	suffix string
	scope  sensitiveScope
}{
	{"/auth/login", "", scopeLogin},
	{"/attendance/normalize", "", scopeActor},
	{"/payroll/runs/", "/snapshot", scopeActor},
	{"/payroll/runs/", "/lock", scopeActor},
	{"/documents/payroll/", "/payslips", scopeActor},
	{"/leave/requests/", "/approve", scopeActor},
	{"/leave/requests/", "/reject", scopeActor},
}

func sensitiveRateScope(r *http.Request) sensitiveScope {
	if r.Method != http.MethodPost {
		return scopeNone
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	for _, route := range sensitiveRoutes {
		if route.suffix == "" {
			if path == route.prefix {
				return route.scope
			}
			continue
		}
		if strings.HasPrefix(path, route.prefix) && strings.HasSuffix(path, route.suffix) {
			return route.scope
		}
	}
	return scopeNone
}
