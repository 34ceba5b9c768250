package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"PluginStore/internal/catalog"
	"PluginStore/internal/config"
	"PluginStore/pkg/kit"
)

const service = "plugin_store"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s, err := newServer(cfg, log, reg)
	if err != nil {
		log.Fatal("init failed", zap.Error(err))
	}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:             log,
		Service:         service,
		Registry:        reg,
		CORSOrigin:      cfg.CORSOrigin,
		WritesPerMinute: cfg.RateLimitPerMin,
		MetricsEnabled:  cfg.MetricsEnabled,
		MetricsToken:    cfg.MetricsToken,
	})

	log.Info("catalog configured",
		zap.String("sync_mode", cfg.SyncMode),
		zap.String("id_allocator", cfg.IDAllocator),
		zap.String("self_url", cfg.SelfURL),
	)

	if err := kit.RunHTTPServer(cfg.Addr(), h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func newServer(cfg config.Config, log *zap.Logger, reg prometheus.Registerer) (*catalog.Server, error) {
	newAlloc, err := catalog.AllocatorFactory(cfg.IDAllocator)
	if err != nil {
		return nil, err
	}

	store := catalog.NewStore(newAlloc)
	svc := catalog.NewService(store, log)
	syncMetrics := catalog.NewSyncMetrics(reg)

	var f catalog.Fetcher
	switch cfg.SyncMode {
	case config.SyncModeLocal:
		f = &catalog.LocalFetcher{Service: svc}
	default:
		f = catalog.NewLoopbackClient(cfg.SelfURL+catalog.APIPrefix, catalog.LoopbackOptions{
			Timeout: cfg.SyncTimeout,
			Retries: cfg.SyncRetries,
			Backoff: cfg.SyncBackoff,
			Log:     log,
			Metrics: syncMetrics,
		})
	}
	svc.Sync = catalog.NewSynchronizer(store, f, log, syncMetrics)

	return &catalog.Server{Service: svc, Log: log}, nil
}
