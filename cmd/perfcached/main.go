package main

import (
	"log"
	"net/http"
	"time"

	"github.com/dealerkit/perfcache/pkg/cache"
	"github.com/dealerkit/perfcache/pkg/config"
	"github.com/dealerkit/perfcache/pkg/diag"
	"github.com/dealerkit/perfcache/pkg/logging"
	"github.com/dealerkit/perfcache/pkg/monitor"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Pretty)

	categories := make([]cache.CategoryConfig, 0, len(cfg.Caches))
	for _, c := range cfg.Caches {
		categories = append(categories, cache.CategoryConfig{
			Name:            c.Name,
			Capacity:        c.Capacity,
			DefaultTTL:      time.Duration(c.DefaultTTL) * time.Second,
			CleanupInterval: time.Duration(c.CleanupInterval) * time.Second,
		})
	}
	registry, err := cache.NewRegistry(categories)
	if err != nil {
		logger.Fatal().Err(err).Msg("build cache registry")
	}
	defer registry.Close()

	mon := monitor.New(logger,
		monitor.WithMaxRecords(cfg.Monitor.MaxRecords),
		monitor.WithSlowThreshold(cfg.Monitor.SlowThreshold),
	)
	mon.StartAutoCleanup(cfg.Monitor.AutoCleanupInterval)
	defer mon.Stop()

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: diag.New(registry, mon, logger),
	}

	logger.Info().
		Str("addr", cfg.ListenAddr).
		Strs("caches", registry.Names()).
		Msg("diagnostics server listening")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server error")
	}
}
