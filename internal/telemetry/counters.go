package telemetry

import "sync/atomic"

// Counters are cumulative and monotonic for the process lifetime.
type Counters struct {
	requests  atomic.Int64
	rejected  atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
}

func NewCounters() *Counters {
	return &Counters{}
}

// RecordRequest counts a dispatched request and the outcomes of its targets.
func (c *Counters) RecordRequest(succeeded, failed, skipped int) {
	c.requests.Add(1)
	c.succeeded.Add(int64(succeeded))
	c.failed.Add(int64(failed))
	c.skipped.Add(int64(skipped))
}

// RecordRejected counts a request that failed before any compaction was attempted.
func (c *Counters) RecordRejected() {
	c.requests.Add(1)
	c.rejected.Add(1)
}

func (c *Counters) Metrics() (requests, rejected, succeeded, failed, skipped int64) {
	return c.requests.Load(), c.rejected.Load(), c.succeeded.Load(), c.failed.Load(), c.skipped.Load()
}
