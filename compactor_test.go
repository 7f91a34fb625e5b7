package ashcompact

import (
	"context"
	"strings"
	"testing"

	"github.com/Borislavv/go-ash-compactor/config"
	"github.com/Borislavv/go-ash-compactor/internal/runtime"
	"github.com/Borislavv/go-ash-compactor/model"
	"github.com/Borislavv/go-ash-compactor/tests/help"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T, cfg *config.Config) *runtime.Local {
	t.Helper()
	local, err := runtime.NewLocal(cfg.Runtime, help.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })
	return local
}

func churn(t *testing.T, local *runtime.Local, region string) {
	t.Helper()
	r, ok := local.Region(region)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		require.NoError(t, r.Put("k", []byte(strings.Repeat("v", i+1))))
	}
}

// TestCompactor_FunctionMetadata reports the registered id and flags.
func TestCompactor_FunctionMetadata(t *testing.T) {
	cfg := help.Cfg(t.TempDir())
	c := New(context.Background(), &cfg.Compactor, help.Discard(), newLocal(t, cfg))
	defer c.Close()

	require.Equal(t, config.DefaultFunctionID, c.ID())
	require.True(t, c.HasResult())
	require.False(t, c.OptimizeForWrite())
	require.False(t, c.IsHA())
}

// TestCompactor_ExecuteAll compacts stores with garbage, declines clean ones and skips disabled ones.
func TestCompactor_ExecuteAll(t *testing.T) {
	cfg := help.Cfg(t.TempDir())
	local := newLocal(t, cfg)
	churn(t, local, "R1")

	c := New(context.Background(), &cfg.Compactor, help.Discard(), local)
	defer c.Close()

	doc, err := c.Execute(context.Background(), "all")
	require.NoError(t, err)
	require.Equal(t, "\n"+
		"disk store: storeA type: REGION source: R1 compaction successful\n"+
		"disk store: storeB type: REGION source: R2 compaction failed\n"+
		"disk store: storeB type: GATEWAY source: G1 compaction failed\n"+
		"disk store: storeC type: QUEUE source: Q1 cannot be compacted - allow-forced-compaction is false\n", doc)

	st, ok := local.DiskStoreStats("storeA")
	require.True(t, ok)
	require.Zero(t, st.GarbageRecords)
	require.Equal(t, int64(1), st.LiveRecords)

	// storeA is clean now, so a second pass declines it
	doc, err = c.Execute(context.Background(), "STORE", "storeA")
	require.NoError(t, err)
	require.Equal(t, "\ndisk store: storeA type: STORE source: R1 compaction failed\n", doc)

	requests, rejected, succeeded, failed, skipped := c.Metrics()
	require.Equal(t, int64(2), requests)
	require.Zero(t, rejected)
	require.Equal(t, int64(1), succeeded)
	require.Equal(t, int64(3), failed)
	require.Equal(t, int64(1), skipped)
}

// TestCompactor_VanishedStore reports the removed store as failed and keeps going.
func TestCompactor_VanishedStore(t *testing.T) {
	cfg := help.Cfg(t.TempDir())
	local := newLocal(t, cfg)
	churn(t, local, "R2")
	require.NoError(t, local.RemoveDiskStore("storeA"))

	c := New(context.Background(), &cfg.Compactor, help.Discard(), local)
	defer c.Close()

	doc, err := c.Execute(context.Background(), "REGION")
	require.NoError(t, err)
	lines := strings.Split(strings.Trim(doc, "\n"), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "disk store: storeA type: REGION source: R1 compaction failed exception: disk store not found")
	require.Equal(t, "disk store: storeB type: REGION source: R2 compaction successful", lines[1])

	_, err = c.Execute(context.Background(), "STORE", "storeA")
	require.ErrorIs(t, err, model.ErrNoSuchDiskStore)
}

// TestCompactor_Pacing still compacts every target when pacing is enabled.
func TestCompactor_Pacing(t *testing.T) {
	cfg := help.Cfg(t.TempDir())
	cfg.Compactor.Pacing = &config.PacingCfg{CallsPerSec: 1000}
	cfg.Compactor.PdxScopeEnabled = true
	cfg.Runtime.PdxDiskStore = "storeB"
	local := newLocal(t, cfg)
	churn(t, local, "R2")

	c := New(context.Background(), &cfg.Compactor, help.Discard(), local)
	defer c.Close()

	doc, err := c.Execute(context.Background(), "pdx")
	require.NoError(t, err)
	require.Equal(t, "\ndisk store: storeB type: PDX source: pdx-registry compaction successful\n", doc)
}

// TestCompactor_RegionWithoutDiskStore fails only the unbacked region's line.
func TestCompactor_RegionWithoutDiskStore(t *testing.T) {
	cfg := help.Cfg(t.TempDir())
	cfg.Runtime.Regions = append(cfg.Runtime.Regions, config.RegionCfg{Name: "R3"})
	local := newLocal(t, cfg)
	churn(t, local, "R1")

	c := New(context.Background(), &cfg.Compactor, help.Discard(), local)
	defer c.Close()

	doc, err := c.Execute(context.Background(), "REGION")
	require.NoError(t, err)
	require.Equal(t, "\n"+
		"disk store: storeA type: REGION source: R1 compaction successful\n"+
		"disk store: storeB type: REGION source: R2 compaction failed\n"+
		"disk store:  type: REGION source: R3 compaction failed exception: disk store not found:\n", doc)
}
