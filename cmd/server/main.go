package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	jwttoken "estate/internal/jwt_token"
	"estate/internal/platform/config"
	"estate/internal/platform/httpserver"
	"estate/internal/platform/logger"
	platformmetrics "estate/internal/platform/metrics"
	platformredis "estate/internal/platform/redis"
	"estate/internal/platform/tracing"
	"estate/internal/registry/cache"
	"estate/internal/registry/handler"
	registrymetrics "estate/internal/registry/metrics"
	"estate/internal/registry/service"
	"estate/pkg/platform/circuit"
	"estate/pkg/platform/httputil"
	authmw "estate/pkg/platform/middleware/auth"
	"estate/pkg/platform/middleware/request"
	"estate/pkg/platform/middleware/requesttime"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal/registry.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("failed to flush traces", "error", err)
		}
	}()
	if cfg.Tracing.Enabled {
		log.Info("tracing enabled", "endpoint", cfg.Tracing.Endpoint)
	}

	storage, err := openStore(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer storage.closer.Close()

	auditPublisher, closeAudit, err := newAuditPublisher(ctx, cfg.Kafka, storage.postgresDB, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	var registerer prometheus.Registerer = prometheus.NewRegistry()
	if cfg.MetricsEnabled {
		registerer = prometheus.DefaultRegisterer
	}
	opts := []service.Option{
		service.WithLogger(log),
		service.WithAuditPublisher(auditPublisher),
		service.WithMetrics(registrymetrics.New(registerer)),
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, service.WithOwnerCache(
			cache.NewRedisOwnerCache(redisClient.Client,
				cache.WithTTL(cfg.Redis.OwnerTTL),
				cache.WithBreaker(circuit.New("owner-cache")),
			),
		))
		log.Info("owner cache enabled", "ttl", cfg.Redis.OwnerTTL)
	}

	svc := service.New(storage.store, opts...)

	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	requireCaller := authmw.RequireCaller(jwttoken.NewJWTServiceAdapter(tokens), log)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(log, platformmetrics.New(registerer)))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "redis": err.Error()})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	handler.New(svc, log, requireCaller).Register(r)

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting estate registry", "addr", cfg.Addr, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
