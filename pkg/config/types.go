package config

import "time"

type loggingCfg struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

type cacheCfg struct {
	Name            string `toml:"name"`
	Capacity        int    `toml:"capacity"`
	DefaultTTL      int    `toml:"defaultTTL"`      // seconds
	CleanupInterval int    `toml:"cleanupInterval"` // seconds
}

type monitorCfg struct {
	MaxRecords          int           `toml:"maxRecords"`
	SlowThreshold       time.Duration `toml:"slowThreshold"`
	AutoCleanupInterval time.Duration `toml:"autoCleanupInterval"`
}

type SystemCfg struct {
	ListenAddr string     `toml:"listenaddr"`
	Logging    loggingCfg `toml:"logging"`
	Caches     []cacheCfg `toml:"caches"`
	Monitor    monitorCfg `toml:"monitor"`
}
