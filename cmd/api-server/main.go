package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/care-booking/internal/actor"
	"github.com/hackgods/care-booking/internal/api"
	"github.com/hackgods/care-booking/internal/appointment"
	"github.com/hackgods/care-booking/internal/auth"
	"github.com/hackgods/care-booking/internal/catalog"
	"github.com/hackgods/care-booking/internal/config"
	"github.com/hackgods/care-booking/internal/logging"
	"github.com/hackgods/care-booking/internal/payment"
	redisclient "github.com/hackgods/care-booking/internal/redis"
	"github.com/hackgods/care-booking/internal/stats"
	"github.com/hackgods/care-booking/internal/storage"
	"github.com/hackgods/care-booking/internal/telemetry"
)

const version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("store_driver", cfg.StoreDriver),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(rootCtx, telemetry.Config{
		Enabled:      cfg.OtelEnabled,
		ServiceName:  cfg.OtelServiceName,
		OTLPEndpoint: cfg.OtelEndpoint,
		SampleRatio:  cfg.OtelSampleRatio,
	})
	if err != nil {
		logger.Fatal("telemetry setup error", zap.Error(err))
	}

	storeCtx, cancelStore := context.WithTimeout(rootCtx, 15*time.Second)
	store, err := storage.Open(storeCtx, cfg)
	cancelStore()
	if err != nil {
		logger.Fatal("store open error", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("error closing store", zap.Error(err))
		}
	}()
	logger.Info("store ready", zap.String("driver", cfg.StoreDriver))

	locker, rdb, err := redisclient.NewLocker(rootCtx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		LockTTL:  cfg.LockTTL,
	})
	if err != nil {
		logger.Fatal("redis connection error", zap.Error(err))
	}

	checks := []api.HealthCheck{{Name: cfg.StoreDriver, Check: store.Ping, Critical: true}}
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("error closing redis", zap.Error(err))
			}
		}()
		checks = append(checks, api.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
		logger.Info("connected to Redis")
	} else {
		logger.Info("redis not configured, slot locking relies on the store only")
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	actors := actor.NewService(store, tokens, logging.Named(logger, "actor"))
	appointments := appointment.NewService(store, locker, logging.Named(logger, "appointment"))
	gateway := payment.NewSimulatedGateway(cfg.GatewayLatency, cfg.GatewaySuccessRate, rand.NewSource(time.Now().UnixNano()))
	payments := payment.NewService(store, appointments, gateway, cfg.GatewayTimeout, logging.Named(logger, "payment"))
	services := catalog.NewService(store, logging.Named(logger, "catalog"))
	aggregates := stats.NewService(store, appointments)

	handler := api.NewRouter(api.RouterConfig{
		Actors:         actors,
		Appointments:   appointments,
		Payments:       payments,
		Catalog:        services,
		Stats:          aggregates,
		Gate:           auth.NewGate(tokens),
		HealthChecks:   checks,
		Logger:         logging.Named(logger, "http"),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Env:            cfg.Env,
		Version:        version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.GatewayTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown error", zap.Error(err))
	}
}
