package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector keeps in-process request and payroll event counters for /metrics.
type Collector struct {
	requests    atomic.Uint64
	byClass     [6]atomic.Uint64
	conflicts   atomic.Uint64
	rateLimited atomic.Uint64
	totalMs     atomic.Uint64
	slowestMs   atomic.Uint64

	events sync.Map // string -> *atomic.Uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	c.requests.Add(1)
	if class := status / 100; class > 0 && class < len(c.byClass) {
		c.byClass[class].Add(1)
	}
	switch status {
	case http.StatusConflict:
		c.conflicts.Add(1)
	case http.StatusTooManyRequests:
		c.rateLimited.Add(1)
	}
	ms := uint64(max(duration.Milliseconds(), 0))
	c.totalMs.Add(ms)
	for {
		cur := c.slowestMs.Load()
		if ms <= cur || c.slowestMs.CompareAndSwap(cur, ms) {
			break
		}
	}
}

// Inc counts a domain event such as "payroll.snapshot".
func (c *Collector) Inc(event string) {
	counter, _ := c.events.LoadOrStore(event, new(atomic.Uint64))
	counter.(*atomic.Uint64).Add(1)
}

func (c *Collector) Snapshot() map[string]any {
	total := c.requests.Load()
	totalMs := c.totalMs.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	events := map[string]uint64{}
	c.events.Range(func(key, value any) bool {
		events[key.(string)] = value.(*atomic.Uint64).Load()
		return true
	})

	return map[string]any{
		"requestsTotal":    total,
		"success2xx":       c.byClass[2].Load(),
		"clientErrors4xx":  c.byClass[4].Load(),
		"errorsTotal":      c.byClass[5].Load(),
		"conflictsTotal":   c.conflicts.Load(),
		"rateLimitedTotal": c.rateLimited.Load(),
		"avgDurationMs":    avg,
		"slowestMs":        c.slowestMs.Load(),
		"totalDurationMs":  totalMs,
		"events":           events,
	}
}
