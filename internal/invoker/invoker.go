package invoker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Borislavv/go-ash-compactor/internal/runtime"
	"github.com/Borislavv/go-ash-compactor/model"
)

type Invoker interface {
	Invoke(ctx context.Context, target model.Target) model.Outcome
}

// Pacer gates every forced compaction call. A nil Pacer means no pacing.
type Pacer interface {
	Take(ctx context.Context) error
}

// CompactionInvoker issues one forced compaction per target and classifies the result.
// It never returns an error: every failure becomes a Failed outcome.
type CompactionInvoker struct {
	stores runtime.DiskStores
	pacer  Pacer
	logger *slog.Logger
}

func New(stores runtime.DiskStores, pacer Pacer, logger *slog.Logger) *CompactionInvoker {
	return &CompactionInvoker{stores: stores, pacer: pacer, logger: logger}
}

func (i *CompactionInvoker) Invoke(ctx context.Context, target model.Target) model.Outcome {
	attrs := []any{
		"disk_store", target.DiskStoreName(),
		"type", target.Classification().String(),
		"source", target.Source(),
	}

	store, err := i.stores.FindDiskStore(target.DiskStoreName())
	if err != nil {
		i.logger.Error("disk store lookup failed", append(attrs, "err", err)...)
		return model.Failed(err, 0)
	}

	if !store.AllowForceCompaction() {
		i.logger.Warn("disk store cannot be compacted - allow-forced-compaction is false", attrs...)
		return model.Skipped(model.SkipReasonForceCompactionDisabled)
	}

	if i.pacer != nil {
		if err = i.pacer.Take(ctx); err != nil {
			err = fmt.Errorf("wait for compaction slot: %w", err)
			i.logger.Error("disk store compaction failed", append(attrs, "err", err)...)
			return model.Failed(err, 0)
		}
	}

	i.logger.Info("compacting disk store", attrs...)
	start := time.Now()
	compacted, err := forceCompaction(ctx, store)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		i.logger.Error("disk store compaction failed", append(attrs, "elapsed", elapsed.String(), "err", err)...)
		return model.Failed(err, elapsed)
	case !compacted:
		i.logger.Error("disk store compaction failed", append(attrs, "elapsed", elapsed.String())...)
		return model.Failed(nil, elapsed)
	default:
		i.logger.Info("disk store compacted", append(attrs, "elapsed", elapsed.String())...)
		return model.Succeeded(elapsed)
	}
}

// forceCompaction turns a panic inside the runtime into an error so one target cannot take the batch down.
func forceCompaction(ctx context.Context, store runtime.DiskStore) (compacted bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			compacted, err = false, fmt.Errorf("force compaction of %s panicked: %v", store.Name(), r)
		}
	}()
	return store.ForceCompaction(ctx)
}
