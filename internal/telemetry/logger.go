package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/Borislavv/go-ash-compactor/config"
	"github.com/Borislavv/go-ash-compactor/internal/diskstore"
	"github.com/Borislavv/go-ash-compactor/internal/shared/bytes"
)

// StatsProvider is implemented by runtimes that can report per disk store counters.
type StatsProvider interface {
	ListDiskStores() []string
	DiskStoreStats(name string) (diskstore.Stats, bool)
}

type Logger interface {
	Interval() time.Duration
	Close() error
}

// Logs periodically writes counter deltas and disk store sizes.
type Logs struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.TelemetryCfg
	logger   *slog.Logger
	source   Source
	stats    StatsProvider
	interval time.Duration
}

// New starts the loop when cfg is enabled. stats may be nil.
func New(
	ctx context.Context,
	cfg *config.TelemetryCfg,
	logger *slog.Logger,
	source Source,
	stats StatsProvider,
) *Logs {
	ctx, cancel := context.WithCancel(ctx)
	l := &Logs{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		logger: logger,
		source: source,
		stats:  stats,
	}
	if cfg.Enabled() {
		l.interval = cfg.LogsInterval
		if l.interval <= 0 {
			l.interval = config.DefaultLogsInterval
		}
	}
	return l.run()
}

func (l *Logs) Interval() time.Duration {
	return l.interval
}

func (l *Logs) Close() error {
	l.cancel()
	return nil
}

func (l *Logs) run() *Logs {
	if l.cfg.Enabled() {
		s := newSampler(l.source)
		go l.loop(s, s.snapshot())
	}
	return l
}

func (l *Logs) loop(s sampler, prev snapshot) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.ctx.Done():
			return

		case <-ticker.C:
			cur := s.snapshot()
			d := deltaSnapshot(prev, cur)
			prev = cur
			l.log(d)
		}
	}
}

func (l *Logs) log(d snapshot) {
	common := []any{"interval", l.interval.String()}

	l.logger.Info("compactor",
		append(common,
			"requests", int64(d.requests),
			"rejected", int64(d.rejected),
			"succeeded", int64(d.succeeded),
			"failed", int64(d.failed),
			"skipped", int64(d.skipped),
		)...,
	)

	if l.stats == nil {
		return
	}
	for _, name := range l.stats.ListDiskStores() {
		st, ok := l.stats.DiskStoreStats(name)
		if !ok {
			continue
		}
		l.logger.Info("disk_store",
			append(common,
				"name", name,
				"size", bytes.FmtMem(uint64(max(st.SizeBytes, 0))),
				"segments", st.Segments,
				"live", st.LiveRecords,
				"garbage", st.GarbageRecords,
				"corrupt", st.CorruptFrames,
			)...,
		)
	}
}
