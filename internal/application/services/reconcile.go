package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/domain"
	"github.com/DanielPopoola/jmw-payments/internal/metrics"
)

// ReconcileService is the only writer of terminal payment state. Webhooks,
// client verification and the stale-payment sweeper all settle through it.
type ReconcileService struct {
	ledger        application.Ledger
	gateway       application.GatewayClient
	sink          application.TaskSink
	verifier      *SignatureVerifier
	verifyTimeout time.Duration
	abandonAfter  time.Duration
	now           application.Clock
	logger        *slog.Logger
}

type ReconcileOptions struct {
	VerifyTimeout time.Duration
	// AbandonAfter is how long an abandoned checkout stays pending before
	// the sweeper fails it.
	AbandonAfter time.Duration
	Clock        application.Clock
}

func NewReconcileService(
	ledger application.Ledger,
	gateway application.GatewayClient,
	sink application.TaskSink,
	verifier *SignatureVerifier,
	opts ReconcileOptions,
	logger *slog.Logger,
) *ReconcileService {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.VerifyTimeout <= 0 {
		opts.VerifyTimeout = 15 * time.Second
	}
	return &ReconcileService{
		ledger:        ledger,
		gateway:       gateway,
		sink:          sink,
		verifier:      verifier,
		verifyTimeout: opts.VerifyTimeout,
		abandonAfter:  opts.AbandonAfter,
		now:           opts.Clock,
		logger:        logger,
	}
}

// Reconcile settles reference exactly once. The returned error is reserved
// for store failures; every other condition is reported as an Outcome.
func (s *ReconcileService) Reconcile(ctx context.Context, reference string, claim application.Claim) (*application.ReconciliationResult, error) {
	start := time.Now()
	result, err := s.reconcile(ctx, reference, claim)
	if err != nil {
		s.logger.Error("reconciliation aborted by store failure",
			"reference", reference,
			"source", claim.Source,
			"error", err)
		metrics.RecordReconcile(string(claim.Source), "unknown", "STORE_ERROR", time.Since(start))
		return nil, err
	}
	metrics.RecordReconcile(string(claim.Source), result.Flow.String(), string(result.Outcome), time.Since(start))
	return result, nil
}

func (s *ReconcileService) reconcile(ctx context.Context, reference string, claim application.Claim) (*application.ReconciliationResult, error) {
	if claim.Source == application.SourceWebhook && !s.verifier.Verify(claim.Body, claim.Signature) {
		s.logger.Warn("webhook signature mismatch", "reference", reference)
		return application.NewResult(application.OutcomeInvalidSignature, reference, domain.FlowUnknown, "invalid signature"), nil
	}

	parsed, err := domain.DecodeReference(reference)
	if err != nil {
		s.logger.Info("unknown reference", "reference", reference, "error", err)
		return application.NewResult(application.OutcomeUnknownReference, reference, domain.FlowUnknown, err.Error()), nil
	}

	verification, failure := s.confirm(ctx, parsed)
	if failure != nil {
		return failure, nil
	}
	if verification.Status != application.GatewayStatusSuccess {
		s.logger.Info("gateway did not confirm payment",
			"reference", reference,
			"gateway_status", verification.Status)
		return application.NewResult(application.OutcomeVerificationFailed, reference, parsed.Kind,
			fmt.Sprintf("gateway reports %s", verification.Status)), nil
	}

	return s.settle(ctx, parsed, verification)
}

// confirm fetches the authoritative status from the gateway. It runs outside
// any ledger transaction so a slow gateway never holds a row lock.
func (s *ReconcileService) confirm(ctx context.Context, parsed domain.ParsedReference) (*application.VerifyResponse, *application.ReconciliationResult) {
	verifyCtx, cancel := context.WithTimeout(ctx, s.verifyTimeout)
	defer cancel()

	start := time.Now()
	verification, err := s.gateway.Verify(verifyCtx, parsed.Raw)
	metrics.RecordGatewayCall("verify", err, time.Since(start))
	if err != nil {
		s.logger.Warn("gateway verification failed",
			"reference", parsed.Raw,
			"category", application.CategorizeError(err),
			"error", err)
		return nil, application.NewResult(application.OutcomeVerificationFailed, parsed.Raw, parsed.Kind, "gateway verification failed")
	}
	if verification == nil || (verification.Reference != "" && verification.Reference != parsed.Raw) {
		return nil, application.NewResult(application.OutcomeVerificationFailed, parsed.Raw, parsed.Kind, "gateway returned a different transaction")
	}
	return verification, nil
}

func (s *ReconcileService) settle(ctx context.Context, parsed domain.ParsedReference, verification *application.VerifyResponse) (*application.ReconciliationResult, error) {
	switch parsed.Kind {
	case domain.FlowBulkOrder:
		return s.settleEntry(ctx, parsed, verification)
	case domain.FlowSimpleOrder:
		return s.settlePayment(ctx, parsed, verification)
	default:
		return application.NewResult(application.OutcomeUnknownReference, parsed.Raw, parsed.Kind, "unsupported flow"), nil
	}
}

func (s *ReconcileService) settlePayment(ctx context.Context, parsed domain.ParsedReference, verification *application.VerifyResponse) (*application.ReconciliationResult, error) {
	var (
		result *application.ReconciliationResult
		task   *application.Task
	)

	err := s.ledger.WithinTx(ctx, func(ctx context.Context, tx application.LedgerTx) error {
		payment, err := tx.PaymentByReferenceForUpdate(ctx, parsed.Raw)
		if errors.Is(err, domain.ErrRecordNotFound) {
			s.logger.Warn("no payment for verified reference", "reference", parsed.Raw)
			result = application.NewResult(application.OutcomeRecordNotFound, parsed.Raw, parsed.Kind, "payment not found")
			return nil
		}
		if err != nil {
			return err
		}

		switch payment.Status {
		case domain.StatusSuccess:
			result = application.NewResult(application.OutcomeAlreadyProcessed, parsed.Raw, parsed.Kind, "already processed")
			result.VerifiedAt = payment.VerifiedAt
			return nil
		case domain.StatusFailed:
			s.logger.Warn("gateway confirmed a payment already marked failed", "reference", parsed.Raw)
			result = application.NewResult(application.OutcomeInvalidTransition, parsed.Raw, parsed.Kind, "payment already failed")
			return nil
		}

		if verification.Amount < payment.Amount {
			s.logger.Warn("gateway amount below ledger amount",
				"reference", parsed.Raw,
				"expected", payment.Amount,
				"received", verification.Amount)
			result = application.NewResult(application.OutcomeVerificationFailed, parsed.Raw, parsed.Kind, "amount mismatch")
			return nil
		}

		now := s.now()
		if err := payment.MarkSucceeded(verification.GatewayReference, now); err != nil {
			return err
		}
		if err := tx.UpdatePayment(ctx, payment); err != nil {
			return err
		}

		orders, err := tx.OrdersForPaymentForUpdate(ctx, payment.ID)
		if err != nil {
			return err
		}
		for _, order := range orders {
			order.MarkPaid(now)
			if err := tx.UpdateOrder(ctx, order); err != nil {
				return err
			}
		}

		receipt, err := paymentReceipt(payment, orders, now)
		if err != nil {
			return err
		}
		task = &receipt
		result = application.NewResult(application.OutcomeSuccess, parsed.Raw, parsed.Kind, "payment verified")
		result.VerifiedAt = payment.VerifiedAt
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("settle payment %s: %w", parsed.Raw, err)
	}

	s.dispatch(ctx, task)
	return result, nil
}

func (s *ReconcileService) settleEntry(ctx context.Context, parsed domain.ParsedReference, verification *application.VerifyResponse) (*application.ReconciliationResult, error) {
	var (
		result *application.ReconciliationResult
		task   *application.Task
	)

	err := s.ledger.WithinTx(ctx, func(ctx context.Context, tx application.LedgerTx) error {
		entry, err := tx.EntryForUpdate(ctx, parsed.ParentID, parsed.ChildID)
		if errors.Is(err, domain.ErrRecordNotFound) {
			s.logger.Warn("no order entry for verified reference", "reference", parsed.Raw)
			result = application.NewResult(application.OutcomeRecordNotFound, parsed.Raw, parsed.Kind, "order entry not found")
			return nil
		}
		if err != nil {
			return err
		}

		if entry.Paid {
			result = application.NewResult(application.OutcomeAlreadyProcessed, parsed.Raw, parsed.Kind, "already processed")
			result.VerifiedAt = entry.PaidAt
			return nil
		}

		link, err := tx.LinkByID(ctx, parsed.ParentID)
		if err != nil {
			return err
		}
		if verification.Amount < link.PricePerItem {
			s.logger.Warn("gateway amount below link price",
				"reference", parsed.Raw,
				"expected", link.PricePerItem,
				"received", verification.Amount)
			result = application.NewResult(application.OutcomeVerificationFailed, parsed.Raw, parsed.Kind, "amount mismatch")
			return nil
		}

		now := s.now()
		if err := entry.MarkPaid(parsed.Raw, now); err != nil {
			return err
		}
		if err := tx.UpdateEntry(ctx, entry); err != nil {
			return err
		}

		receipt, err := entryReceipt(link, entry, link.PricePerItem)
		if err != nil {
			return err
		}
		task = &receipt
		result = application.NewResult(application.OutcomeSuccess, parsed.Raw, parsed.Kind, "payment verified")
		result.VerifiedAt = entry.PaidAt
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("settle entry %s: %w", parsed.Raw, err)
	}

	s.dispatch(ctx, task)
	return result, nil
}

// ResolveStale re-verifies a pending simple-order payment. Gateway success
// settles it normally; a definitive gateway failure, or an abandoned
// checkout older than AbandonAfter, moves it to failed.
func (s *ReconcileService) ResolveStale(ctx context.Context, reference string) (*application.ReconciliationResult, error) {
	start := time.Now()
	result, err := s.resolveStale(ctx, reference)
	if err != nil {
		return nil, err
	}
	metrics.RecordReconcile(string(application.SourceSweeper), result.Flow.String(), string(result.Outcome), time.Since(start))
	return result, nil
}

func (s *ReconcileService) resolveStale(ctx context.Context, reference string) (*application.ReconciliationResult, error) {
	parsed, err := domain.DecodeReference(reference)
	if err != nil || parsed.Kind != domain.FlowSimpleOrder {
		return application.NewResult(application.OutcomeUnknownReference, reference, parsed.Kind, "not a payment reference"), nil
	}

	verification, failure := s.confirm(ctx, parsed)
	if failure != nil {
		return failure, nil
	}

	switch verification.Status {
	case application.GatewayStatusSuccess:
		return s.settlePayment(ctx, parsed, verification)
	case application.GatewayStatusFailed, application.GatewayStatusReversed:
		return s.failPayment(ctx, parsed, verification.Status, time.Time{})
	case application.GatewayStatusAbandoned:
		return s.failPayment(ctx, parsed, verification.Status, s.now().Add(-s.abandonAfter))
	default:
		return application.NewResult(application.OutcomeStillPending, reference, parsed.Kind,
			fmt.Sprintf("gateway reports %s", verification.Status)), nil
	}
}

// failPayment fails a pending payment under its row lock. A non-zero
// createdBefore leaves younger payments pending.
func (s *ReconcileService) failPayment(ctx context.Context, parsed domain.ParsedReference, reason string, createdBefore time.Time) (*application.ReconciliationResult, error) {
	var result *application.ReconciliationResult

	err := s.ledger.WithinTx(ctx, func(ctx context.Context, tx application.LedgerTx) error {
		payment, err := tx.PaymentByReferenceForUpdate(ctx, parsed.Raw)
		if errors.Is(err, domain.ErrRecordNotFound) {
			result = application.NewResult(application.OutcomeRecordNotFound, parsed.Raw, parsed.Kind, "payment not found")
			return nil
		}
		if err != nil {
			return err
		}

		switch {
		case payment.Status == domain.StatusSuccess:
			result = application.NewResult(application.OutcomeAlreadyProcessed, parsed.Raw, parsed.Kind, "already processed")
			result.VerifiedAt = payment.VerifiedAt
			return nil
		case payment.Status == domain.StatusFailed:
			result = application.NewResult(application.OutcomeFailed, parsed.Raw, parsed.Kind, "already failed")
			return nil
		case !createdBefore.IsZero() && payment.CreatedAt.After(createdBefore):
			result = application.NewResult(application.OutcomeStillPending, parsed.Raw, parsed.Kind, "checkout abandoned recently")
			return nil
		}

		if err := payment.MarkFailed(reason, s.now()); err != nil {
			return err
		}
		if err := tx.UpdatePayment(ctx, payment); err != nil {
			return err
		}
		result = application.NewResult(application.OutcomeFailed, parsed.Raw, parsed.Kind, "gateway reports "+reason)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fail payment %s: %w", parsed.Raw, err)
	}
	return result, nil
}

// dispatch hands a committed side effect to the sink. Failures are logged
// and never affect the reconciliation result.
func (s *ReconcileService) dispatch(ctx context.Context, task *application.Task) {
	if task == nil || s.sink == nil {
		return
	}
	if err := s.sink.Enqueue(context.WithoutCancel(ctx), *task); err != nil {
		s.logger.Error("failed to dispatch side effect",
			"task_id", task.ID,
			"kind", task.Kind,
			"reference", task.Reference,
			"error", err)
	}
}
