package autocompactor

import "sync/atomic"

type autoCompactorCounters struct {
	scans     atomic.Int64
	scanHits  atomic.Int64
	compacted atomic.Int64
	errors    atomic.Int64
}

func (c *autoCompactorCounters) snapshot() (scans, hits, compacted, errors int64) {
	return c.scans.Load(), c.scanHits.Load(), c.compacted.Load(), c.errors.Load()
}

func newAutoCompactorCounters() *autoCompactorCounters {
	return &autoCompactorCounters{}
}
