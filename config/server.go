package config

import "time"

type ServerCfg struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func (cfg *ServerCfg) Enabled() bool {
	return cfg != nil
}
