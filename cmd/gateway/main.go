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

	"github.com/DanielPopoola/jmw-payments/internal/application/services"
	"github.com/DanielPopoola/jmw-payments/internal/config"
	"github.com/DanielPopoola/jmw-payments/internal/infrastructure/gateway"
	"github.com/DanielPopoola/jmw-payments/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/jmw-payments/internal/infrastructure/tasks"
	"github.com/DanielPopoola/jmw-payments/internal/interfaces/rest/docs"
	"github.com/DanielPopoola/jmw-payments/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/jmw-payments/internal/interfaces/rest/middleware"
	"github.com/DanielPopoola/jmw-payments/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting payments service",
		"port", cfg.Server.Port,
		"env", cfg.Primary.Env,
		"paystack_test_mode", cfg.Paystack.TestMode,
		"task_backend", cfg.Tasks.Backend,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	ledger := postgres.NewLedger(db)

	paystackClient := gateway.NewPaystackClient(cfg.Paystack)
	retryClient := gateway.NewRetryClient(paystackClient, cfg.Retry)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	sink, err := tasks.NewSink(workerCtx, cfg, logger)
	if err != nil {
		logger.Error("failed to build task sink", "error", err)
		os.Exit(1)
	}

	verifier := services.NewSignatureVerifier(cfg.Paystack.WebhookSecret())
	reconciler := services.NewReconcileService(
		ledger,
		retryClient,
		sink,
		verifier,
		services.ReconcileOptions{
			VerifyTimeout: cfg.Paystack.VerifyTimeout,
			AbandonAfter:  cfg.Worker.AbandonAfter,
		},
		logger,
	)
	webhookRouter := services.NewWebhookRouter(reconciler, reconciler, verifier, logger)
	initializeService := services.NewInitializeService(ledger, retryClient, services.InitializeOptions{
		ReferencePrefix: cfg.Company.Prefix,
		CallbackURL:     cfg.Paystack.CallbackURL,
		PublicKey:       cfg.Paystack.PublicKey(),
	}, logger)
	entryService := services.NewEntryService(ledger, sink, cfg.Paystack.PublicKey(), nil, logger)
	queryService := services.NewQueryService(ledger)

	h := handlers.NewHandlers(
		webhookRouter,
		reconciler,
		initializeService,
		entryService,
		queryService,
		logger,
	)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	apiDoc, err := middleware.LoadAPIDocument(docs.SwaggerInfo.ReadDoc())
	if err != nil {
		logger.Error("failed to load API document", "error", err)
		os.Exit(1)
	}
	validate, err := middleware.RequestValidation(apiDoc, logger)
	if err != nil {
		logger.Error("failed to build request validator", "error", err)
		os.Exit(1)
	}

	handler := validate(mux)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweeper := worker.NewSweeper(ledger, reconciler, cfg.Worker, nil, logger)
	go sweeper.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// In-flight requests may still enqueue receipts, so the sink drains
	// after the server has stopped.
	if err := sink.Shutdown(shutdownCtx); err != nil {
		logger.Error("task sink did not drain", "error", err)
	}
	cancelWorkers()

	logger.Info("server exited")
}
