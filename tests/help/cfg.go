package help

import (
	"path/filepath"

	"github.com/Borislavv/go-ash-compactor/config"
)

// Cfg builds a local runtime layout under dir:
// regions R1->storeA, R2->storeB, sender G1->storeB, queue Q1->storeC (compaction disabled).
func Cfg(dir string) *config.Config {
	c := &config.Config{
		Compactor: config.Compactor{
			Telemetry: &config.TelemetryCfg{},
		},
		Runtime: config.Runtime{
			DiskStores: []config.DiskStoreCfg{
				{Name: "storeA", Dir: filepath.Join(dir, "storeA"), AllowForceCompaction: true},
				{Name: "storeB", Dir: filepath.Join(dir, "storeB"), AllowForceCompaction: true, Gzip: true},
				{Name: "storeC", Dir: filepath.Join(dir, "storeC"), AllowForceCompaction: false},
			},
			Regions: []config.RegionCfg{
				{Name: "R1", DiskStore: "storeA"},
				{Name: "R2", DiskStore: "storeB"},
			},
			GatewaySenders: []config.GatewaySenderCfg{
				{ID: "G1", DiskStore: "storeB"},
			},
			AsyncEventQueues: []config.AsyncEventQueueCfg{
				{ID: "Q1", DiskStore: "storeC"},
			},
		},
	}
	c.AdjustConfig()
	return c
}
