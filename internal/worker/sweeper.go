// Package worker runs the periodic stale-payment sweeper.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/config"
	"github.com/DanielPopoola/jmw-payments/internal/domain"
	"github.com/DanielPopoola/jmw-payments/internal/metrics"
)

type StaleSource interface {
	StalePendingPayments(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.PaymentTransaction, error)
}

type StaleResolver interface {
	ResolveStale(ctx context.Context, reference string) (*application.ReconciliationResult, error)
}

// Sweeper re-verifies pending payments nobody reconciled, such as checkouts
// whose webhook never arrived. Every terminal write goes through the
// resolver.
type Sweeper struct {
	source       StaleSource
	resolver     StaleResolver
	interval     time.Duration
	batchSize    int
	pendingAfter time.Duration
	now          application.Clock
	logger       *slog.Logger
}

func NewSweeper(source StaleSource, resolver StaleResolver, cfg config.WorkerConfig, clock application.Clock, logger *slog.Logger) *Sweeper {
	if clock == nil {
		clock = time.Now
	}
	return &Sweeper{
		source:       source,
		resolver:     resolver,
		interval:     cfg.Interval,
		batchSize:    cfg.BatchSize,
		pendingAfter: cfg.PendingAfter,
		now:          clock,
		logger:       logger,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("starting stale payment sweeper",
		"interval", s.interval,
		"batch_size", s.batchSize,
		"pending_after", s.pendingAfter)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping stale payment sweeper")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// Summary counts the outcomes of one sweep.
type Summary struct {
	Checked  int                         `json:"checked"`
	Errors   int                         `json:"errors"`
	Outcomes map[application.Outcome]int `json:"outcomes"`
}

// RunOnce executes a single sweep over at most one batch.
func (s *Sweeper) RunOnce(ctx context.Context) Summary {
	summary := Summary{Outcomes: map[application.Outcome]int{}}

	stale, err := s.source.StalePendingPayments(ctx, s.now().Add(-s.pendingAfter), s.batchSize)
	if err != nil {
		s.logger.Error("failed to fetch stale payments", "error", err)
		summary.Errors++
		return summary
	}
	if len(stale) == 0 {
		return summary
	}

	s.logger.Info("sweeping stale payments", "count", len(stale))

	for _, payment := range stale {
		if ctx.Err() != nil {
			break
		}
		summary.Checked++

		result, err := s.resolver.ResolveStale(ctx, payment.Reference)
		if err != nil {
			s.logger.Error("failed to resolve stale payment", "reference", payment.Reference, "error", err)
			summary.Errors++
			continue
		}

		summary.Outcomes[result.Outcome]++
		metrics.RecordSweeperResolved(string(result.Outcome))
		if result.Outcome != application.OutcomeStillPending {
			s.logger.Info("stale payment resolved",
				"reference", payment.Reference,
				"outcome", result.Outcome,
				"message", result.Message)
		}
	}

	return summary
}
