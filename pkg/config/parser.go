package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

var defaultSystemCfg = SystemCfg{
	ListenAddr: ":8600",
	Logging: loggingCfg{
		Level: "info",
	},
	Caches: []cacheCfg{
		{Name: "global", Capacity: 1000, DefaultTTL: 300, CleanupInterval: 300},
		{Name: "vehicle", Capacity: 2000, DefaultTTL: 1800, CleanupInterval: 300},
		{Name: "valuation", Capacity: 500, DefaultTTL: 3600, CleanupInterval: 300},
	},
	Monitor: monitorCfg{
		MaxRecords:          10000,
		SlowThreshold:       5 * time.Second,
		AutoCleanupInterval: 1 * time.Hour,
	},
}

// LoadConfig reads the config file named by the -config flag. A missing file
// is not an error; the defaults are used as-is.
func LoadConfig() (*SystemCfg, error) {
	configFile := flag.String("config", "config.toml", "location of config file")
	flag.Parse()
	return ParseFile(*configFile)
}

// ParseFile decodes path over a copy of the defaults. A nonexistent path
// yields the defaults.
func ParseFile(path string) (*SystemCfg, error) {
	config := defaultSystemCfg

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &config, nil
	}
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &config, nil
}
