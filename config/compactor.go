package config

import "time"

// Compactor groups configuration of the compaction function and its subsystems.
// Sub-configs set to nil are disabled.
type Compactor struct {
	// ID is the name the function is registered under on the invocation surface.
	// Defaults to "CompactDiskStoresFunction".
	ID string `yaml:"id"`

	// PdxScopeEnabled makes the legacy PDX scope token valid.
	// When disabled, PDX is rejected like any other unknown scope.
	PdxScopeEnabled bool `yaml:"pdx_scope_enabled"`

	// Pacing limits how many forced compactions are issued per second.
	// If nil, compactions are issued back to back.
	Pacing *PacingCfg `yaml:"pacing"`

	// Telemetry configures the periodic counters log.
	// If nil, no counters are logged.
	Telemetry *TelemetryCfg `yaml:"telemetry"`
}

type PacingCfg struct {
	// CallsPerSec is the maximum number of forced compactions per second.
	CallsPerSec int `yaml:"calls_per_sec"`
}

func (cfg *PacingCfg) Enabled() bool {
	return cfg != nil && cfg.CallsPerSec > 0
}

type TelemetryCfg struct {
	// LogsInterval defines how often counters deltas are logged.
	LogsInterval time.Duration `yaml:"logs_interval"`
}

func (cfg *TelemetryCfg) Enabled() bool {
	return cfg != nil
}
