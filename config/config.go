package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFunctionID                = "CompactDiskStoresFunction"
	DefaultMaxOplogSizeBytes         = 1024 * 1024
	DefaultCompactionThreshold       = 50
	DefaultAutoCompactionCallsPerSec = 1
	MaxAutoCompactionCallsPerSec     = 1000
	DefaultLogsInterval              = 5 * time.Second
	DefaultServerAddr                = ":8080"
	DefaultShutdownTimeout           = 5 * time.Second
)

var ErrDuplicateDiskStore = errors.New("duplicate disk store name")

// Config is the root of the YAML document.
type Config struct {
	Compactor Compactor  `yaml:"compactor"`
	Runtime   Runtime    `yaml:"runtime"`
	Server    *ServerCfg `yaml:"server"`
}

// AdjustConfig fills in defaults for zero values.
func (cfg *Config) AdjustConfig() {
	if cfg.Compactor.ID == "" {
		cfg.Compactor.ID = DefaultFunctionID
	}
	if cfg.Compactor.Telemetry.Enabled() && cfg.Compactor.Telemetry.LogsInterval <= 0 {
		cfg.Compactor.Telemetry.LogsInterval = DefaultLogsInterval
	}
	for i := range cfg.Runtime.DiskStores {
		if cfg.Runtime.DiskStores[i].MaxOplogSizeBytes <= 0 {
			cfg.Runtime.DiskStores[i].MaxOplogSizeBytes = DefaultMaxOplogSizeBytes
		}
		if cfg.Runtime.DiskStores[i].CompactionThreshold <= 0 {
			cfg.Runtime.DiskStores[i].CompactionThreshold = DefaultCompactionThreshold
		}
	}
	if cfg.Runtime.AutoCompaction.Enabled() && cfg.Runtime.AutoCompaction.CallsPerSec <= 0 {
		cfg.Runtime.AutoCompaction.CallsPerSec = DefaultAutoCompactionCallsPerSec
	}
	if cfg.Server.Enabled() {
		if cfg.Server.Addr == "" {
			cfg.Server.Addr = DefaultServerAddr
		}
		if cfg.Server.ShutdownTimeout <= 0 {
			cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
		}
	}
}

// Validate checks the runtime section for names that cannot be resolved unambiguously
// and for rates the background workers cannot run at.
func (cfg *Config) Validate() error {
	if ac := cfg.Runtime.AutoCompaction; ac.Enabled() && ac.CallsPerSec > MaxAutoCompactionCallsPerSec {
		return fmt.Errorf("auto_compaction.calls_per_sec %d exceeds %d", ac.CallsPerSec, MaxAutoCompactionCallsPerSec)
	}
	seen := make(map[string]struct{}, len(cfg.Runtime.DiskStores))
	for _, ds := range cfg.Runtime.DiskStores {
		if ds.Name == "" {
			return errors.New("disk store name is empty")
		}
		if ds.Dir == "" {
			return fmt.Errorf("disk store %s: dir is empty", ds.Name)
		}
		if ds.CompactionThreshold < 0 || ds.CompactionThreshold > 100 {
			return fmt.Errorf("disk store %s: compaction_threshold %d is out of [0..100]", ds.Name, ds.CompactionThreshold)
		}
		if _, ok := seen[ds.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateDiskStore, ds.Name)
		}
		seen[ds.Name] = struct{}{}
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	var cfg *Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.AdjustConfig()

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}

	return cfg, nil
}
