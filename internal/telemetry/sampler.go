package telemetry

// Source exposes cumulative compaction counters.
type Source interface {
	Metrics() (requests, rejected, succeeded, failed, skipped int64)
}

type sampler struct {
	source Source
}

func newSampler(s Source) sampler {
	return sampler{source: s}
}

// snapshot holds cumulative counters (monotonic).
type snapshot struct {
	requests  uint64
	rejected  uint64
	succeeded uint64
	failed    uint64
	skipped   uint64
}

func (s sampler) snapshot() snapshot {
	requests, rejected, succeeded, failed, skipped := s.source.Metrics()
	return snapshot{
		requests:  uint64(max(requests, 0)),
		rejected:  uint64(max(rejected, 0)),
		succeeded: uint64(max(succeeded, 0)),
		failed:    uint64(max(failed, 0)),
		skipped:   uint64(max(skipped, 0)),
	}
}

// deltaSnapshot converts cumulative snapshots to per-interval deltas.
// If counters reset (cur < prev), it treats cur as the delta.
func deltaSnapshot(prev, cur snapshot) snapshot {
	return snapshot{
		requests:  delta(prev.requests, cur.requests),
		rejected:  delta(prev.rejected, cur.rejected),
		succeeded: delta(prev.succeeded, cur.succeeded),
		failed:    delta(prev.failed, cur.failed),
		skipped:   delta(prev.skipped, cur.skipped),
	}
}

func delta(prev, cur uint64) uint64 {
	if cur >= prev {
		return cur - prev
	}
	return cur
}
