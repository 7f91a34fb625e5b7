package dispatcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Borislavv/go-ash-compactor/internal/invoker"
	"github.com/Borislavv/go-ash-compactor/internal/resolver"
	"github.com/Borislavv/go-ash-compactor/internal/telemetry"
	"github.com/Borislavv/go-ash-compactor/model"
	"github.com/Borislavv/go-ash-compactor/tests/help"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func newDispatcher(cache *help.FakeCache, counters *telemetry.Counters) *RequestDispatcher {
	logger := help.Discard()
	return New(
		resolver.New(cache, true),
		invoker.New(cache, nil, logger),
		counters,
		noop.NewTracerProvider().Tracer("test"),
		logger,
	)
}

func lines(doc string) []string {
	return strings.Split(strings.TrimSuffix(strings.TrimPrefix(doc, "\n"), "\n"), "\n")
}

// TestDispatch_AllOrdersRegionsThenGateways matches the documented two-line example.
func TestDispatch_AllOrdersRegionsThenGateways(t *testing.T) {
	cache := &help.FakeCache{
		Regions: []help.FakeOwner{{Owner: "R1", DiskStore: "storeA"}},
		Senders: []help.FakeOwner{{Owner: "G1", DiskStore: "storeB"}},
	}
	cache.Store("storeA", true, true, nil)
	cache.Store("storeB", true, true, nil)

	doc, err := newDispatcher(cache, telemetry.NewCounters()).Dispatch(context.Background(), []string{"ALL"})
	require.NoError(t, err)
	require.Equal(t, "\n"+
		"disk store: storeA type: REGION source: R1 compaction successful\n"+
		"disk store: storeB type: GATEWAY source: G1 compaction successful\n", doc)
}

// TestDispatch_LineCountPerScope produces one line per inventory element.
func TestDispatch_LineCountPerScope(t *testing.T) {
	cache := &help.FakeCache{
		Regions: []help.FakeOwner{{Owner: "R1", DiskStore: "storeA"}, {Owner: "R2", DiskStore: "storeA"}},
		Senders: []help.FakeOwner{{Owner: "G1", DiskStore: "storeB"}},
		Queues:  []help.FakeOwner{{Owner: "Q1", DiskStore: "storeA"}, {Owner: "Q2", DiskStore: "storeB"}, {Owner: "Q3", DiskStore: "storeB"}},
	}
	cache.Store("storeA", true, true, nil)
	cache.Store("storeB", true, true, nil)
	d := newDispatcher(cache, telemetry.NewCounters())

	for scope, want := range map[string]int{"all": 6, "Region": 2, "GATEWAY": 1, "queue": 3} {
		doc, err := d.Dispatch(context.Background(), []string{scope})
		require.NoError(t, err, scope)
		require.Len(t, lines(doc), want, scope)
	}
	require.Equal(t, 12, cache.TotalCalls())
}

// TestDispatch_PartialFailureDoesNotStopBatch keeps compacting after a declined and an erroring store.
func TestDispatch_PartialFailureDoesNotStopBatch(t *testing.T) {
	cache := &help.FakeCache{
		Regions: []help.FakeOwner{{Owner: "R1", DiskStore: "declines"}, {Owner: "R2", DiskStore: "errors"}},
		Queues:  []help.FakeOwner{{Owner: "Q1", DiskStore: "works"}},
	}
	cache.Store("declines", true, false, nil)
	cache.Store("errors", true, true, errors.New("oplog locked"))
	works := cache.Store("works", true, true, nil)
	counters := telemetry.NewCounters()

	doc, err := newDispatcher(cache, counters).Dispatch(context.Background(), []string{"ALL"})
	require.NoError(t, err)
	require.Equal(t, []string{
		"disk store: declines type: REGION source: R1 compaction failed",
		"disk store: errors type: REGION source: R2 compaction failed exception: oplog locked",
		"disk store: works type: QUEUE source: Q1 compaction successful",
	}, lines(doc))
	require.Equal(t, 1, works.Calls())

	requests, rejected, succeeded, failed, skipped := counters.Metrics()
	require.Equal(t, int64(1), requests)
	require.Zero(t, rejected)
	require.Equal(t, int64(1), succeeded)
	require.Equal(t, int64(2), failed)
	require.Zero(t, skipped)
}

// TestDispatch_StoreSkipped yields exactly one skipped line and no compaction call.
func TestDispatch_StoreSkipped(t *testing.T) {
	cache := &help.FakeCache{Regions: []help.FakeOwner{{Owner: "R1", DiskStore: "storeA"}}}
	store := cache.Store("storeA", false, true, nil)

	doc, err := newDispatcher(cache, telemetry.NewCounters()).Dispatch(context.Background(), []string{"store", "storeA"})
	require.NoError(t, err)
	require.Equal(t, []string{
		"disk store: storeA type: STORE source: R1 cannot be compacted - allow-forced-compaction is false",
	}, lines(doc))
	require.Zero(t, store.Calls())
}

// TestDispatch_StoreUnknown fails without a report and without compaction calls.
func TestDispatch_StoreUnknown(t *testing.T) {
	cache := &help.FakeCache{Regions: []help.FakeOwner{{Owner: "R1", DiskStore: "storeA"}}}
	cache.Store("storeA", true, true, nil)
	counters := telemetry.NewCounters()

	doc, err := newDispatcher(cache, counters).Dispatch(context.Background(), []string{"STORE", "absent"})
	require.ErrorIs(t, err, model.ErrNoSuchDiskStore)
	require.Empty(t, doc)
	require.Zero(t, cache.TotalCalls())

	_, rejected, _, _, _ := counters.Metrics()
	require.Equal(t, int64(1), rejected)
}

// TestDispatch_ArgumentErrors covers the request taxonomy.
func TestDispatch_ArgumentErrors(t *testing.T) {
	cache := &help.FakeCache{}
	cache.Store("storeA", true, true, nil)
	d := newDispatcher(cache, telemetry.NewCounters())

	cases := []struct {
		name string
		args []string
		err  error
	}{
		{"nil", nil, model.ErrMissingScope},
		{"empty", []string{}, model.ErrMissingScope},
		{"unknown scope", []string{"EVERYTHING"}, model.ErrInvalidScope},
		{"name with region scope", []string{"REGION", "storeA"}, model.ErrScopeArgumentMismatch},
		{"store without name", []string{"STORE"}, model.ErrScopeArgumentMismatch},
		{"store with empty name", []string{"STORE", ""}, model.ErrScopeArgumentMismatch},
		{"too many", []string{"STORE", "storeA", "extra"}, model.ErrScopeArgumentMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := d.Dispatch(context.Background(), tc.args)
			require.ErrorIs(t, err, tc.err)
			require.Empty(t, doc)
		})
	}
	require.Zero(t, cache.TotalCalls())

	// a mismatch is still an invalid scope for callers matching on the broader error
	_, err := d.Dispatch(context.Background(), []string{"QUEUE", "storeA"})
	require.ErrorIs(t, err, model.ErrInvalidScope)
}

// TestDispatch_EmptySecondArgument is the same as passing the scope alone.
func TestDispatch_EmptySecondArgument(t *testing.T) {
	cache := &help.FakeCache{Regions: []help.FakeOwner{{Owner: "R1", DiskStore: "storeA"}}}
	cache.Store("storeA", true, true, nil)

	doc, err := newDispatcher(cache, telemetry.NewCounters()).Dispatch(context.Background(), []string{"region", ""})
	require.NoError(t, err)
	require.Len(t, lines(doc), 1)
}

// TestDispatch_Idempotent returns matching classifications for an unchanged inventory.
func TestDispatch_Idempotent(t *testing.T) {
	cache := &help.FakeCache{
		Regions: []help.FakeOwner{{Owner: "R1", DiskStore: "storeA"}},
		Queues:  []help.FakeOwner{{Owner: "Q1", DiskStore: "storeB"}},
	}
	cache.Store("storeA", true, true, nil)
	cache.Store("storeB", false, true, nil)
	d := newDispatcher(cache, telemetry.NewCounters())

	first, err := d.Dispatch(context.Background(), []string{"ALL"})
	require.NoError(t, err)
	second, err := d.Dispatch(context.Background(), []string{"ALL"})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

// TestDispatch_Span records scope attributes and marks rejected requests as errors.
func TestDispatch_Span(t *testing.T) {
	cache := &help.FakeCache{Regions: []help.FakeOwner{{Owner: "R1", DiskStore: "storeA"}}}
	cache.Store("storeA", true, true, nil)

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	logger := help.Discard()
	d := New(resolver.New(cache, false), invoker.New(cache, nil, logger), telemetry.NewCounters(), tp.Tracer("test"), logger)

	_, err := d.Dispatch(context.Background(), []string{"REGION"})
	require.NoError(t, err)
	_, err = d.Dispatch(context.Background(), []string{"PDX"})
	require.ErrorIs(t, err, model.ErrInvalidScope)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	require.Equal(t, "compact_disk_stores", spans[0].Name())
	require.Equal(t, codes.Unset, spans[0].Status().Code)
	require.Equal(t, codes.Error, spans[1].Status().Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	require.Equal(t, "REGION", attrs["compaction.scope"])
	require.Equal(t, "1", attrs["compaction.targets"])
	require.Equal(t, "1", attrs["compaction.succeeded"])
}

// TestParseArgs normalizes the scope token and keeps the disk store name verbatim.
func TestParseArgs(t *testing.T) {
	req, err := ParseArgs([]string{"sToRe", "MixedCase"})
	require.NoError(t, err)
	require.Equal(t, model.ClassificationStore, req.Scope)
	require.Equal(t, "MixedCase", req.DiskStoreName)

	req, err = ParseArgs([]string{"gateway"})
	require.NoError(t, err)
	require.Equal(t, model.ClassificationGateway, req.Scope)
	require.Empty(t, req.DiskStoreName)
}
