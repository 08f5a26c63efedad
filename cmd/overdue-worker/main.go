package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/care-booking/internal/appointment"
	"github.com/hackgods/care-booking/internal/config"
	"github.com/hackgods/care-booking/internal/logging"
	"github.com/hackgods/care-booking/internal/storage"
)

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

	logger.Info("overdue-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.WorkerInterval),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	// The sweep never books, so no slot lock is needed here.
	svc := appointment.NewService(store, nil, logging.Named(logger, "appointment"))

	// Run once at startup
	runOnce(rootCtx, svc, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping overdue worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, logger *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	overdue, err := svc.SweepOverdue(runCtx, start)
	if err != nil {
		logger.Error("overdue sweep error", zap.Error(err))
		return
	}

	for _, a := range overdue {
		logger.Warn("appointment overdue",
			zap.String("appointment_id", a.ID.String()),
			zap.String("provider_id", a.ProviderID.String()),
			zap.String("requester_id", a.RequesterID.String()),
			zap.String("date", a.Date()),
			zap.String("time", a.Time()),
		)
	}
	logger.Info("overdue sweep complete",
		zap.Int("overdue", len(overdue)),
		zap.Duration("took", time.Since(start)),
	)
}
