package autocompactor

import "time"

// NoOpAutoCompactor is used when auto compaction is not configured.
type NoOpAutoCompactor struct{}

func (NoOpAutoCompactor) ForceCall(time.Duration) error { return nil }

func (NoOpAutoCompactor) Metrics() (scans, hits, compacted, errors int64) {
	return 0, 0, 0, 0
}

func (NoOpAutoCompactor) Close() error { return nil }
