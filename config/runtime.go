package config

// Runtime describes the local cache runtime: its disk stores and the
// regions, gateway senders and async event queues they back.
// Order of Regions, GatewaySenders and AsyncEventQueues is the inventory iteration order.
type Runtime struct {
	DiskStores       []DiskStoreCfg       `yaml:"disk_stores"`
	Regions          []RegionCfg          `yaml:"regions"`
	GatewaySenders   []GatewaySenderCfg   `yaml:"gateway_senders"`
	AsyncEventQueues []AsyncEventQueueCfg `yaml:"async_event_queues"`

	// PdxDiskStore names the disk store backing the PDX type registry, if any.
	PdxDiskStore string `yaml:"pdx_disk_store"`

	// AutoCompaction configures background compaction of disk stores with AutoCompact set.
	// If nil, disk stores are compacted only on demand.
	AutoCompaction *AutoCompactionCfg `yaml:"auto_compaction"`
}

type AutoCompactionCfg struct {
	// CallsPerSec defines how many scans over disk stores are performed per second.
	CallsPerSec int64 `yaml:"calls_per_sec"`
}

func (cfg *AutoCompactionCfg) Enabled() bool {
	return cfg != nil
}

type DiskStoreCfg struct {
	// Name is the unique disk store name.
	Name string `yaml:"name"`

	// Dir is where oplog segments are stored. It is created if missing.
	Dir string `yaml:"dir"`

	// AllowForceCompaction gates on-demand compaction of this disk store.
	AllowForceCompaction bool `yaml:"allow_force_compaction"`

	// Gzip enables gzip compression of segments sealed by compaction.
	// The active segment is always written uncompressed.
	Gzip bool `yaml:"gzip"`

	// MaxOplogSizeBytes rolls the active segment over once it grows beyond this size.
	// Zero means the default of 1MB.
	MaxOplogSizeBytes int64 `yaml:"max_oplog_size"`

	// AutoCompact lets the background auto compactor rewrite this store.
	// It is independent from AllowForceCompaction, which gates on-demand compaction only.
	AutoCompact bool `yaml:"auto_compact"`

	// CompactionThreshold is the percentage of garbage records, in [0..100], at which
	// the auto compactor picks the store up. Zero means the default of 50.
	CompactionThreshold int `yaml:"compaction_threshold"`
}

type RegionCfg struct {
	Name      string `yaml:"name"`
	DiskStore string `yaml:"disk_store"`
}

type GatewaySenderCfg struct {
	ID        string `yaml:"id"`
	DiskStore string `yaml:"disk_store"`
}

type AsyncEventQueueCfg struct {
	ID        string `yaml:"id"`
	DiskStore string `yaml:"disk_store"`
}
