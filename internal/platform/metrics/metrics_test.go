package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorRecord(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(500, 30*time.Millisecond)
	c.Record(429, 2*time.Millisecond)
	c.Record(409, 6*time.Millisecond)

	snap := c.Snapshot()
	assert.Equal(t, uint64(4), snap["requestsTotal"])
	assert.Equal(t, uint64(1), snap["success2xx"])
	assert.Equal(t, uint64(2), snap["clientErrors4xx"])
	assert.Equal(t, uint64(1), snap["errorsTotal"])
	assert.Equal(t, uint64(1), snap["conflictsTotal"])
	assert.Equal(t, uint64(1), snap["rateLimitedTotal"])
	assert.Equal(t, uint64(48), snap["totalDurationMs"])
	assert.Equal(t, uint64(30), snap["slowestMs"])
	assert.InDelta(t, 12.0, snap["avgDurationMs"], 0.001)
}

func TestCollectorIncConcurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc("payroll.snapshot")
		}()
	}
	wg.Wait()
	c.Inc("payroll.lock")

	events := c.Snapshot()["events"].(map[string]uint64)
	assert.Equal(t, uint64(50), events["payroll.snapshot"])
	assert.Equal(t, uint64(1), events["payroll.lock"])
}
