package ashcompact

import (
	"context"
	"io"
	"log/slog"

	"github.com/Borislavv/go-ash-compactor/config"
	"github.com/Borislavv/go-ash-compactor/internal/dispatcher"
	"github.com/Borislavv/go-ash-compactor/internal/invoker"
	"github.com/Borislavv/go-ash-compactor/internal/resolver"
	"github.com/Borislavv/go-ash-compactor/internal/runtime"
	"github.com/Borislavv/go-ash-compactor/internal/shared/rate"
	"github.com/Borislavv/go-ash-compactor/internal/telemetry"
)

// Function is a remotely invocable operation taking string arguments and returning a document.
type Function interface {
	ID() string
	Execute(ctx context.Context, args ...string) (string, error)
	HasResult() bool
	OptimizeForWrite() bool
	IsHA() bool
}

type AshCompactor interface {
	Function
	telemetry.Logger
	io.Closer
}

// Compactor compacts disk stores of the given cache runtime on request.
// The runtime is always injected; nothing is looked up from global state.
type Compactor struct {
	id         string
	dispatcher dispatcher.Dispatcher
	counters   *telemetry.Counters
	telemetry.Logger
	cls context.CancelFunc
}

func New(ctx context.Context, cfg *config.Compactor, logger *slog.Logger, cache runtime.Cache) *Compactor {
	ctx, cancel := context.WithCancel(ctx)

	id := cfg.ID
	if id == "" {
		id = config.DefaultFunctionID
	}

	var pacer invoker.Pacer
	if cfg.Pacing.Enabled() {
		pacer = rate.NewJitter(ctx, cfg.Pacing.CallsPerSec)
	}

	var stats telemetry.StatsProvider
	if sp, ok := cache.(telemetry.StatsProvider); ok {
		stats = sp
	}

	counters := telemetry.NewCounters()
	return &Compactor{
		id:       id,
		counters: counters,
		cls:      cancel,
		Logger:   telemetry.New(ctx, cfg.Telemetry, logger, counters, stats),
		dispatcher: dispatcher.New(
			resolver.New(cache, cfg.PdxScopeEnabled),
			invoker.New(cache, pacer, logger),
			counters,
			telemetry.Tracer(),
			logger,
		),
	}
}

func (c *Compactor) ID() string { return c.id }

// Execute runs one compaction request and returns the report document.
func (c *Compactor) Execute(ctx context.Context, args ...string) (string, error) {
	return c.dispatcher.Dispatch(ctx, args)
}

func (c *Compactor) HasResult() bool        { return true }
func (c *Compactor) OptimizeForWrite() bool { return false }
func (c *Compactor) IsHA() bool             { return false }

// Metrics returns cumulative request and outcome counters.
func (c *Compactor) Metrics() (requests, rejected, succeeded, failed, skipped int64) {
	return c.counters.Metrics()
}

func (c *Compactor) Close() error {
	c.cls()
	return nil
}

var _ AshCompactor = (*Compactor)(nil)
