// Command owlbrowser runs the control core: the context pool, the
// multi-connection IPC server, and the full action surface behind it.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/owlbrowser/core/internal/action"
	"github.com/owlbrowser/core/internal/browserengine"
	"github.com/owlbrowser/core/internal/config"
	"github.com/owlbrowser/core/internal/contextmgr"
	"github.com/owlbrowser/core/internal/finder"
	"github.com/owlbrowser/core/internal/framecache"
	"github.com/owlbrowser/core/internal/ipc"
	"github.com/owlbrowser/core/internal/livestream"
	"github.com/owlbrowser/core/internal/logging"
	"github.com/owlbrowser/core/internal/metrics"
	"github.com/owlbrowser/core/internal/vm"
)

// configPath is read from OWLBROWSER_CONFIG, or is
// /etc/owlbrowser/config.yaml when that is empty; loadConfig falls back
// to in-process defaults rather than failing to start when the file
// cannot be loaded, since the spec treats CLI flag parsing as out of scope.
func configPath() string {
	if p := os.Getenv("OWLBROWSER_CONFIG"); p != "" {
		return p
	}
	return "/etc/owlbrowser/config.yaml"
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath())
	if err != nil {
		cfg = config.Default()
	}
	return cfg
}

func main() {
	cfg := loadConfig()

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "owlbrowser: logger init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	reloader := config.NewReloader(configPath())
	if err := reloader.Load(); err == nil {
		if err := reloader.Start(); err != nil {
			logger.Warn("config hot-reload disabled", zap.Error(err))
		}
		defer reloader.Stop()
	}

	metricsCollector := metrics.New()
	vmEngine := vm.NewEngine()
	frames := framecache.New()
	stream := livestream.NewHub()
	frames.OnPut(stream.OnFrame)

	manager := contextmgr.NewManager(contextmgr.Limits{
		MaxContexts:          cfg.MaxContexts,
		MaxMemoryMB:          cfg.MaxMemoryMB,
		PerContextEstimateMB: cfg.PerContextEstimateMB,
		IdleTTL:              cfg.IdleTTL,
		CleanupInterval:      cfg.CleanupInterval,
		ShutdownTimeout:      cfg.ShutdownTimeout,
	}, logger.Zap())
	manager.TeardownFunc = func(bc *contextmgr.BrowserContext) {
		frames.ClearForContext(bc.ID)
		if tab, ok := bc.Handle().(*browserengine.Tab); ok {
			if err := tab.Close(); err != nil {
				logger.Warn("tab close failed", zap.String("context_id", bc.ID), zap.Error(err))
			}
		}
	}
	manager.StartCleanup()
	defer manager.StopCleanup()
	manager.SetReady(true)

	// Only the subset of config that has a live setter is actually
	// hot-swapped; everything else in applyReloadable's safe subset
	// (rate limits, verification defaults, cleanup interval) still lands
	// in reloader.Config() for the next restart but isn't pushed further.
	reloader.OnChange(func(cfg *config.Config) {
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			logger.Warn("hot-reload: log level rejected", zap.Error(err))
		}
		manager.SetIdleTTL(cfg.IdleTTL)
		logger.Info("config hot-reload applied", zap.String("log_level", cfg.Log.Level), zap.Duration("idle_ttl", cfg.IdleTTL))
	})

	surface := action.New(
		manager, vmEngine, finder.NullResolver{}, frames, stream, metricsCollector, logger,
		cfg.Headless,
		10*time.Millisecond, cfg.StrictNetworkIdleWindow, cfg.StrictDOMStableWindow,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/stream", stream.Handler)
	mux.Handle("/metrics", promhttp.HandlerFor(metricsCollector.Registry(), promhttp.HandlerOpts{}))
	httpSrv := &http.Server{Addr: "127.0.0.1:8973", Handler: mux}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("live-stream http server stopped", zap.Error(err))
		}
	}()

	ipcServer := ipc.New(ipc.Config{
		SocketPath:    cfg.SocketPath,
		StdioFallback: cfg.StdioFallback,
		MaxConns:      cfg.MaxConns,
		RateLimitPerS: cfg.RateLimit,
		RateBurst:     cfg.RateBurst,
	}, surface, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	if err := ipcServer.Serve(ctx); err != nil {
		logger.Error("ipc server exited with error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	manager.Shutdown()
}
