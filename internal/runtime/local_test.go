package runtime

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/Borislavv/go-ash-compactor/config"
	"github.com/Borislavv/go-ash-compactor/model"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func localCfg(dir string) config.Runtime {
	return config.Runtime{
		DiskStores: []config.DiskStoreCfg{
			{Name: "zeta", Dir: filepath.Join(dir, "zeta"), AllowForceCompaction: true},
			{Name: "alpha", Dir: filepath.Join(dir, "alpha")},
		},
		Regions: []config.RegionCfg{
			{Name: "orders", DiskStore: "zeta"},
			{Name: "customers", DiskStore: "zeta"},
		},
		GatewaySenders:   []config.GatewaySenderCfg{{ID: "ny", DiskStore: "alpha"}},
		AsyncEventQueues: []config.AsyncEventQueueCfg{{ID: "audit", DiskStore: "zeta"}},
		PdxDiskStore:     "alpha",
	}
}

// TestLocal_Inventory lists stores lexically and owners in configuration order.
func TestLocal_Inventory(t *testing.T) {
	l, err := NewLocal(localCfg(t.TempDir()), discard())
	require.NoError(t, err)
	defer l.Close()

	require.Equal(t, []string{"alpha", "zeta"}, l.ListDiskStores())

	regions := l.ApplicationRegions()
	require.Len(t, regions, 2)
	require.Equal(t, "orders", regions[0].Name())
	require.Equal(t, "customers", regions[1].Name())
	require.Equal(t, "zeta", regions[1].DiskStoreName())

	require.Equal(t, "ny", l.GatewaySenders()[0].ID())
	require.Equal(t, "audit", l.AsyncEventQueues()[0].ID())

	pdx, ok := l.PdxDiskStoreName()
	require.True(t, ok)
	require.Equal(t, "alpha", pdx)
}

// TestLocal_FindDiskStore fails with ErrDiskStoreNotFound for unknown names.
func TestLocal_FindDiskStore(t *testing.T) {
	l, err := NewLocal(localCfg(t.TempDir()), discard())
	require.NoError(t, err)
	defer l.Close()

	ds, err := l.FindDiskStore("zeta")
	require.NoError(t, err)
	require.True(t, ds.AllowForceCompaction())

	_, err = l.FindDiskStore("absent")
	require.ErrorIs(t, err, model.ErrDiskStoreNotFound)
}

// TestLocal_UnknownOwnerStore rejects owners bound to a missing disk store.
func TestLocal_UnknownOwnerStore(t *testing.T) {
	cfg := localCfg(t.TempDir())
	cfg.AsyncEventQueues = append(cfg.AsyncEventQueues, config.AsyncEventQueueCfg{ID: "broken", DiskStore: "absent"})

	_, err := NewLocal(cfg, discard())
	require.ErrorIs(t, err, model.ErrDiskStoreNotFound)
}

// TestLocal_RegionsShareStore keep their keys apart and produce reclaimable garbage.
func TestLocal_RegionsShareStore(t *testing.T) {
	l, err := NewLocal(localCfg(t.TempDir()), discard())
	require.NoError(t, err)
	defer l.Close()

	orders, ok := l.Region("orders")
	require.True(t, ok)
	customers, ok := l.Region("customers")
	require.True(t, ok)
	_, ok = l.Region("absent")
	require.False(t, ok)

	require.NoError(t, orders.Put("1", []byte("o1")))
	require.NoError(t, customers.Put("1", []byte("c1")))
	require.NoError(t, orders.Put("1", []byte("o1-v2")))
	deleted, err := customers.Delete("1")
	require.NoError(t, err)
	require.True(t, deleted)

	v, ok := orders.Get("1")
	require.True(t, ok)
	require.Equal(t, []byte("o1-v2"), v)
	_, ok = customers.Get("1")
	require.False(t, ok)

	st, ok := l.DiskStoreStats("zeta")
	require.True(t, ok)
	require.Equal(t, int64(1), st.LiveRecords)
	require.Equal(t, int64(3), st.GarbageRecords)

	ds, err := l.FindDiskStore("zeta")
	require.NoError(t, err)
	compacted, err := ds.ForceCompaction(context.Background())
	require.NoError(t, err)
	require.True(t, compacted)
}

// TestLocal_RemoveDiskStore drops the store from the inventory.
func TestLocal_RemoveDiskStore(t *testing.T) {
	l, err := NewLocal(localCfg(t.TempDir()), discard())
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.RemoveDiskStore("alpha"))
	require.Equal(t, []string{"zeta"}, l.ListDiskStores())
	_, ok := l.DiskStoreStats("alpha")
	require.False(t, ok)
	require.ErrorIs(t, l.RemoveDiskStore("alpha"), model.ErrDiskStoreNotFound)
}

// TestLocal_AutoCompactionCandidates returns only stores with auto compaction on.
func TestLocal_AutoCompactionCandidates(t *testing.T) {
	cfg := localCfg(t.TempDir())
	cfg.DiskStores[1].AutoCompact = true

	l, err := NewLocal(cfg, discard())
	require.NoError(t, err)
	defer l.Close()

	candidates := l.AutoCompactionCandidates()
	require.Len(t, candidates, 1)
	require.Equal(t, "alpha", candidates[0].Name())
}

// TestLocal_OwnersWithoutDiskStore keeps unbacked owners in the inventory and refuses region writes.
func TestLocal_OwnersWithoutDiskStore(t *testing.T) {
	cfg := localCfg(t.TempDir())
	cfg.Regions = append(cfg.Regions, config.RegionCfg{Name: "scratch"})
	cfg.GatewaySenders = append(cfg.GatewaySenders, config.GatewaySenderCfg{ID: "ldn"})

	l, err := NewLocal(cfg, discard())
	require.NoError(t, err)
	defer l.Close()

	regions := l.ApplicationRegions()
	require.Len(t, regions, 3)
	require.Equal(t, "scratch", regions[2].Name())
	require.Empty(t, regions[2].DiskStoreName())
	require.Empty(t, l.GatewaySenders()[1].DiskStoreName())

	r, ok := l.Region("scratch")
	require.True(t, ok)
	require.ErrorIs(t, r.Put("k", []byte("v")), ErrRegionNotPersistent)
	_, err = r.Delete("k")
	require.ErrorIs(t, err, ErrRegionNotPersistent)
	_, ok = r.Get("k")
	require.False(t, ok)

	_, err = l.FindDiskStore(regions[2].DiskStoreName())
	require.ErrorIs(t, err, model.ErrDiskStoreNotFound)
}
