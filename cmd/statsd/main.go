// Command statsd serves stored period statistics over HTTP.
//
// It reads reports saved by "periodstats run --store ..." from PostgreSQL or
// SQLite and exposes them at /api/v1/reports for dashboards, together with
// liveness and readiness probes and Prometheus metrics.
//
// Usage:
//
//	go run ./cmd/statsd [-config configs/development.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/statsapi"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/store"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting stats service", "port", cfg.Server.Port, "store", cfg.Store.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Store.Driver == "" {
		slog.Error("store.driver must be set to postgres or sqlite")
		os.Exit(1)
	}
	s, err := store.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to open report store", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	m := metrics.New()
	checker := health.NewChecker()
	checker.Register("store", health.PingCheck(s.Ping, true))

	var invalidator statsapi.Invalidator
	if cfg.Cache.Enabled {
		client, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("report cache unavailable, invalidation disabled", "error", err)
		} else {
			defer client.Close()
			invalidator = cache.New(client, cfg.Cache.TTL, m)
			checker.Register("redis", health.PingCheck(client.Ping, false))
		}
	}

	var limiter *ratelimit.Limiter
	if cfg.Server.RateLimit > 0 {
		limiter = ratelimit.New(cfg.Server.RateLimit, time.Minute)
		go limiter.Run(ctx)
	}

	handler := statsapi.NewRouter(statsapi.NewHandler(s, invalidator), statsapi.RouterConfig{
		Checker:        checker,
		Metrics:        m,
		RequestTimeout: cfg.Server.RequestTimeout,
		AllowOrigins:   cfg.Server.AllowOrigins,
		Limiter:        limiter,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("stats service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("stats service stopped")
}
