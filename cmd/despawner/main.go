package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"despawner/internal/analytics"
	"despawner/internal/bot"
	"despawner/internal/config"
	"despawner/internal/counter"
	"despawner/internal/dispatch"
	"despawner/internal/guildconfig"
	"despawner/internal/modules/audit"
	"despawner/internal/modules/denylist"
	"despawner/internal/modules/keyword"
	"despawner/internal/registry"
	"despawner/internal/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx := context.Background()
	backend, err := storage.Open(ctx, storage.Options{
		Driver:      cfg.Storage.Driver,
		DataDir:     cfg.DataDir,
		SQLitePath:  cfg.Storage.SQLitePath,
		PostgresDSN: cfg.Storage.PostgresDSN,
	})
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer backend.Close()

	ids := denylist.New(cfg.DenylistPath, logger.Named("denylist"))
	_, _ = ids.Reload()

	actions := audit.NewLogger(backend, logger.Named("actions"))
	svc := bot.Services{
		Denylist:  ids,
		Keywords:  keyword.NewDefault(),
		Configs:   guildconfig.New(ctx, backend, logger.Named("guildconfig")),
		Channels:  registry.NewChannels(ctx, backend, logger),
		Appeals:   registry.NewAppeals(ctx, backend, logger),
		Bans:      counter.New(backend, logger.Named("counter")),
		Actions:   actions,
		Analytics: analytics.New(actions),
		Queue:     dispatch.NewQueue(cfg.QueueSize, logger.Named("dispatch")),
	}

	botSvc, err := bot.New(cfg, logger, svc)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started")

	var server *http.Server
	if cfg.Health.Enabled {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		mux.Handle("/metrics", promhttp.Handler())
		server = &http.Server{Addr: cfg.Health.Addr, Handler: mux}
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if server != nil {
		_ = server.Shutdown(shutdownCtx)
	}
	botSvc.Close(shutdownCtx)
}
