package main

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/care-booking/internal/config"
	"github.com/hackgods/care-booking/internal/logging"
	"github.com/hackgods/care-booking/internal/outbox"
	"github.com/hackgods/care-booking/internal/storage"
	"github.com/hackgods/care-booking/internal/telemetry"
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

	brokers := splitBrokers(cfg.KafkaBrokers)
	if len(brokers) == 0 {
		logger.Info("KAFKA_BROKERS not set, outbox relay disabled")
		return
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(rootCtx, telemetry.Config{
		Enabled:      cfg.OtelEnabled,
		ServiceName:  cfg.OtelServiceName + "-relay",
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

	writer := outbox.NewKafkaWriter(brokers)
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Warn("error closing kafka writer", zap.Error(err))
		}
	}()

	relay := outbox.NewRelay(store, writer, outbox.RelayConfig{
		TopicPrefix: cfg.KafkaTopicPrefix,
		PollEvery:   cfg.OutboxPollInterval,
		BatchSize:   cfg.OutboxBatchSize,
	}, logging.Named(logger, "outbox"))

	logger.Info("outbox relay running",
		zap.Strings("brokers", brokers),
		zap.String("topic_prefix", cfg.KafkaTopicPrefix),
	)
	relay.Run(rootCtx)

	logger.Info("shutting down outbox relay")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown error", zap.Error(err))
	}
}

func splitBrokers(raw string) []string {
	var out []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
