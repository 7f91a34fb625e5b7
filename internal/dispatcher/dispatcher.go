package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Borislavv/go-ash-compactor/internal/invoker"
	"github.com/Borislavv/go-ash-compactor/internal/report"
	"github.com/Borislavv/go-ash-compactor/internal/resolver"
	"github.com/Borislavv/go-ash-compactor/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Recorder receives per-request tallies.
type Recorder interface {
	RecordRequest(succeeded, failed, skipped int)
	RecordRejected()
}

type Dispatcher interface {
	Dispatch(ctx context.Context, args []string) (string, error)
}

// RequestDispatcher parses the raw function arguments, resolves targets and compacts
// them one by one. A failing target never stops the remaining ones.
type RequestDispatcher struct {
	resolver resolver.Resolver
	invoker  invoker.Invoker
	recorder Recorder
	tracer   trace.Tracer
	logger   *slog.Logger
}

func New(
	resolver resolver.Resolver,
	invoker invoker.Invoker,
	recorder Recorder,
	tracer trace.Tracer,
	logger *slog.Logger,
) *RequestDispatcher {
	return &RequestDispatcher{
		resolver: resolver,
		invoker:  invoker,
		recorder: recorder,
		tracer:   tracer,
		logger:   logger,
	}
}

// Request is a parsed argument list.
type Request struct {
	Scope         model.Classification
	DiskStoreName string
}

// ParseArgs accepts [SCOPE] or [STORE, NAME]. The scope token is case-insensitive.
// An empty second argument is treated as absent.
func ParseArgs(args []string) (Request, error) {
	if len(args) == 0 {
		return Request{}, model.ErrMissingScope
	}
	if len(args) > 2 {
		return Request{}, fmt.Errorf("%w: got %d arguments", model.ErrScopeArgumentMismatch, len(args))
	}

	scope, err := model.ParseClassification(args[0])
	if err != nil {
		return Request{}, err
	}

	var name string
	if len(args) == 2 {
		name = args[1]
	}

	switch {
	case name != "" && scope != model.ClassificationStore:
		return Request{}, fmt.Errorf("%w: %s with disk store %q", model.ErrScopeArgumentMismatch, scope, name)
	case name == "" && scope == model.ClassificationStore:
		return Request{}, fmt.Errorf("%w: STORE without disk store name", model.ErrScopeArgumentMismatch)
	}

	return Request{Scope: scope, DiskStoreName: name}, nil
}

func (d *RequestDispatcher) Dispatch(ctx context.Context, args []string) (string, error) {
	ctx, span := d.tracer.Start(ctx, "compact_disk_stores")
	defer span.End()

	req, err := ParseArgs(args)
	if err != nil {
		return "", d.reject(span, err, "args", strings.Join(args, ","))
	}
	span.SetAttributes(
		attribute.String("compaction.scope", req.Scope.String()),
		attribute.String("compaction.disk_store", req.DiskStoreName),
	)

	if req.Scope == model.ClassificationStore {
		d.logger.Info("compaction request for store", "disk_store", req.DiskStoreName)
	} else {
		d.logger.Info("compaction request", "scope", req.Scope.String())
	}

	targets, err := d.resolver.Resolve(req.Scope, req.DiskStoreName)
	if err != nil {
		return "", d.reject(span, err, "scope", req.Scope.String())
	}
	span.SetAttributes(attribute.Int("compaction.targets", len(targets)))

	b := report.New()
	for _, target := range targets {
		b.Append(target, d.invoker.Invoke(ctx, target))
	}

	succeeded, failed, skipped := b.Counts()
	d.recorder.RecordRequest(succeeded, failed, skipped)
	span.SetAttributes(
		attribute.Int("compaction.succeeded", succeeded),
		attribute.Int("compaction.failed", failed),
		attribute.Int("compaction.skipped", skipped),
	)
	d.logger.Info("compaction request finished",
		"scope", req.Scope.String(),
		"targets", len(targets),
		"succeeded", succeeded,
		"failed", failed,
		"skipped", skipped,
	)

	return b.String(), nil
}

func (d *RequestDispatcher) reject(span trace.Span, err error, attrs ...any) error {
	d.recorder.RecordRejected()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	d.logger.Error("compaction request rejected", append(attrs, "err", err)...)
	return err
}
