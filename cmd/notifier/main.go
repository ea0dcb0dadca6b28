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

	"github.com/DanielPopoola/jmw-payments/internal/config"
	"github.com/DanielPopoola/jmw-payments/internal/infrastructure/documents"
	"github.com/DanielPopoola/jmw-payments/internal/infrastructure/mailer"
	"github.com/DanielPopoola/jmw-payments/internal/infrastructure/tasks"
	"github.com/DanielPopoola/jmw-payments/internal/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting notifier",
		"brokers", cfg.Kafka.Brokers,
		"topic", cfg.Kafka.Topic,
		"group_id", cfg.Kafka.GroupID,
		"smtp_disabled", cfg.SMTP.Disabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := tasks.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	group, err := tasks.NewConsumerGroup(cfg.Kafka)
	if err != nil {
		logger.Error("failed to join consumer group", "error", err)
		os.Exit(1)
	}

	executor := tasks.NewExecutor(
		documents.NewRenderer(cfg.Company),
		mailer.NewSender(cfg.SMTP, logger),
		cfg.Company,
		logger,
	)
	consumer := tasks.NewConsumer(
		group,
		cfg.Kafka.Topic,
		executor,
		tasks.NewRedisDeduper(rdb, cfg.Redis.DedupeTTL),
		logger,
	)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	if err := consumer.Run(ctx); err != nil {
		logger.Error("task consumer stopped", "error", err)
	}

	logger.Info("shutting down notifier...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server forced to shutdown", "error", err)
	}
	if err := consumer.Close(); err != nil {
		logger.Error("failed to close consumer group", "error", err)
	}

	logger.Info("notifier exited")
}
