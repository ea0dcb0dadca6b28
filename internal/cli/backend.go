package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/application/services"
	"github.com/DanielPopoola/jmw-payments/internal/config"
	"github.com/DanielPopoola/jmw-payments/internal/domain"
	"github.com/DanielPopoola/jmw-payments/internal/infrastructure/gateway"
	"github.com/DanielPopoola/jmw-payments/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/jmw-payments/internal/infrastructure/tasks"
	"github.com/DanielPopoola/jmw-payments/internal/worker"
)

type Migrator interface {
	Migrate(ctx context.Context) error
}

type Catalog interface {
	CreateLink(ctx context.Context, cmd services.CreateLinkCommand) (*domain.BulkOrderLink, []*domain.CouponCode, error)
	CreateOrder(ctx context.Context, cmd services.CreateOrderCommand) (*domain.Order, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, reference string, claim application.Claim) (*application.ReconciliationResult, error)
}

type SweepRunner interface {
	RunOnce(ctx context.Context) worker.Summary
}

// Backend is what the commands talk to. Close releases the connections and
// flushes queued receipts.
type Backend struct {
	Migrator   Migrator
	Catalog    Catalog
	Reconciler Reconciler
	Sweeper    SweepRunner
	Close      func()
}

type BackendFactory func(ctx context.Context, logger *slog.Logger) (*Backend, error)

const sinkDrainTimeout = 30 * time.Second

// OpenBackend loads the environment configuration and connects to
// PostgreSQL and Paystack.
func OpenBackend(ctx context.Context, logger *slog.Logger) (*Backend, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sinkCtx, stopSink := context.WithCancel(context.Background())
	sink, err := tasks.NewSink(sinkCtx, cfg, logger)
	if err != nil {
		stopSink()
		db.Close()
		return nil, fmt.Errorf("build task sink: %w", err)
	}

	ledger := postgres.NewLedger(db)
	client := gateway.NewRetryClient(gateway.NewPaystackClient(cfg.Paystack), cfg.Retry)

	reconciler := services.NewReconcileService(
		ledger,
		client,
		sink,
		services.NewSignatureVerifier(cfg.Paystack.WebhookSecret()),
		services.ReconcileOptions{
			VerifyTimeout: cfg.Paystack.VerifyTimeout,
			AbandonAfter:  cfg.Worker.AbandonAfter,
		},
		logger,
	)

	return &Backend{
		Migrator:   db,
		Catalog:    services.NewCatalogService(ledger, cfg.Company.Prefix, nil, logger),
		Reconciler: reconciler,
		Sweeper:    worker.NewSweeper(ledger, reconciler, cfg.Worker, nil, logger),
		Close: func() {
			drainCtx, cancel := context.WithTimeout(context.Background(), sinkDrainTimeout)
			defer cancel()
			if err := sink.Shutdown(drainCtx); err != nil {
				logger.Error("task sink did not drain", "error", err)
			}
			stopSink()
			db.Close()
		},
	}, nil
}

// connect opens the backend with a logger that respects --verbose. Logs go
// to stderr so stdout carries only command output.
func (o *RootOptions) connect(ctx context.Context, f *OutputFormatter) (*Backend, error) {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(f.ErrWriter, &slog.HandlerOptions{Level: level}))

	backend, err := o.Open(ctx, logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	return backend, nil
}
