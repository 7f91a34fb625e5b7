package autocompactor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Borislavv/go-ash-compactor/config"
	"github.com/Borislavv/go-ash-compactor/internal/diskstore"
)

const minScanInterval = time.Millisecond

var ErrAutoCompactorNotResponded = errors.New("auto compactor not responded")

// Source lists disk stores that opted into auto compaction.
type Source interface {
	AutoCompactionCandidates() []*diskstore.Store
}

// AutoCompactor compacts disk stores in the background once their garbage
// ratio crosses the configured threshold. It never touches forced compaction settings.
type AutoCompactor interface {
	ForceCall(timeout time.Duration) error
	Metrics() (scans, hits, compacted, errors int64)
	Close() error
}

type Worker struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.AutoCompactionCfg
	logger   *slog.Logger
	source   Source
	counters *autoCompactorCounters
	invokeCh chan *diskstore.Store
	forceCh  chan struct{}
	wg       sync.WaitGroup
}

func New(
	ctx context.Context,
	cfg *config.AutoCompactionCfg,
	logger *slog.Logger,
	source Source,
) AutoCompactor {
	if !cfg.Enabled() {
		return &NoOpAutoCompactor{}
	}

	ctx, cancel := context.WithCancel(ctx)
	return (&Worker{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		logger:   logger,
		source:   source,
		counters: newAutoCompactorCounters(),
		invokeCh: make(chan *diskstore.Store),
		forceCh:  make(chan struct{}),
	}).run()
}

// ForceCall triggers an immediate scan.
func (w *Worker) ForceCall(timeout time.Duration) error {
	after := time.NewTimer(timeout)
	defer after.Stop()

	select {
	case <-w.ctx.Done():
	case w.forceCh <- struct{}{}:
	case <-after.C:
		return ErrAutoCompactorNotResponded
	}
	return nil
}

func (w *Worker) Metrics() (scans, hits, compacted, errors int64) {
	return w.counters.snapshot()
}

// Close stops the worker and waits for an in-flight compaction to finish.
func (w *Worker) Close() error {
	w.cancel()
	w.wg.Wait()
	return nil
}

func (w *Worker) run() *Worker {
	w.logger.Info("auto compactor is running", "calls_per_sec", w.cfg.CallsPerSec)

	w.wg.Go(w.consumer)
	w.wg.Go(w.provider)
	go func() {
		w.wg.Wait()
		w.logger.Info("auto compactor is stopped")
	}()

	return w
}

// provider - scans candidates and hands due disk stores to the consumer.
func (w *Worker) provider() {
	tick := time.NewTicker(scanInterval(w.cfg.CallsPerSec))
	defer tick.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-tick.C:
		case <-w.forceCh:
		}
		if !w.scan() {
			return
		}
	}
}

// scanInterval never returns less than minScanInterval, so any rate yields a valid ticker.
func scanInterval(callsPerSec int64) time.Duration {
	if callsPerSec <= 0 {
		callsPerSec = 1
	}
	if interval := time.Second / time.Duration(callsPerSec); interval > minScanInterval {
		return interval
	}
	return minScanInterval
}

func (w *Worker) scan() bool {
	w.counters.scans.Add(1)
	for _, store := range w.source.AutoCompactionCandidates() {
		if !store.AutoCompactionDue() {
			continue
		}
		w.counters.scanHits.Add(1)
		select {
		case <-w.ctx.Done():
			return false
		case w.invokeCh <- store:
		}
	}
	return true
}

// consumer - compacts one disk store at a time.
func (w *Worker) consumer() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case store := <-w.invokeCh:
			compacted, err := store.AutoCompact(w.ctx)
			switch {
			case err != nil:
				w.counters.errors.Add(1)
				w.logger.Error("auto compaction failed", "disk_store", store.Name(), "err", err)
			case compacted:
				w.counters.compacted.Add(1)
			}
		}
	}
}
