package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/domain"
	"github.com/DanielPopoola/jmw-payments/internal/metrics"
	"github.com/google/uuid"
)

// maxReferenceAttempts bounds re-rolls of a colliding random reference.
const maxReferenceAttempts = 5

type InitializePaymentCommand struct {
	OrderIDs    []uuid.UUID
	Email       string
	CallbackURL string
}

// PaymentInstructions is what the storefront needs to redirect the payer.
type PaymentInstructions struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
	Amount           domain.Kobo
	Email            string
	PublicKey        string
}

type InitializeOptions struct {
	ReferencePrefix string
	CallbackURL     string
	PublicKey       string
	Clock           application.Clock
}

type InitializeService struct {
	ledger  application.Ledger
	gateway application.GatewayClient
	opts    InitializeOptions
	logger  *slog.Logger
}

func NewInitializeService(
	ledger application.Ledger,
	gateway application.GatewayClient,
	opts InitializeOptions,
	logger *slog.Logger,
) *InitializeService {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &InitializeService{
		ledger:  ledger,
		gateway: gateway,
		opts:    opts,
		logger:  logger,
	}
}

// Initialize records a pending payment for the given unpaid orders, then
// asks the gateway for a checkout. A gateway failure leaves the pending
// record in place for the sweeper.
func (s *InitializeService) Initialize(ctx context.Context, cmd InitializePaymentCommand) (*PaymentInstructions, error) {
	if len(cmd.OrderIDs) == 0 {
		return nil, application.NewFieldError(domain.ErrCodeMissingRequiredField, "order_ids", "at least one order is required")
	}

	var payment *domain.PaymentTransaction
	err := s.ledger.WithinTx(ctx, func(ctx context.Context, tx application.LedgerTx) error {
		orders, err := tx.OrdersForUpdate(ctx, cmd.OrderIDs)
		if err != nil {
			return err
		}
		if len(orders) != len(uniqueIDs(cmd.OrderIDs)) {
			return domain.NewRecordNotFoundError("order", "in request")
		}

		var total domain.Kobo
		for _, order := range orders {
			if order.Paid {
				return fmt.Errorf("order %s: %w", order.Reference, domain.ErrOrderAlreadyPaid)
			}
			total += order.Total
		}

		email := cmd.Email
		if email == "" {
			email = orders[0].Email
		}

		ids := make([]uuid.UUID, 0, len(orders))
		for _, order := range orders {
			ids = append(ids, order.ID)
		}

		payment, err = domain.NewPaymentTransaction(uuid.New(), email, total, ids, s.opts.Clock())
		if err != nil {
			return err
		}
		return insertWithReference(ctx, tx, payment, s.opts.ReferencePrefix)
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	callbackURL := cmd.CallbackURL
	if callbackURL == "" {
		callbackURL = s.opts.CallbackURL
	}

	orderIDs := make([]string, 0, len(payment.OrderIDs))
	for _, id := range payment.OrderIDs {
		orderIDs = append(orderIDs, id.String())
	}

	start := time.Now()
	resp, err := s.gateway.Initialize(ctx, application.InitializeRequest{
		Reference:   payment.Reference,
		Email:       payment.Email,
		Amount:      payment.Amount,
		CallbackURL: callbackURL,
		Metadata:    map[string]any{"order_ids": orderIDs},
	})
	metrics.RecordGatewayCall("initialize", err, time.Since(start))
	if err != nil {
		s.logger.Error("gateway initialize failed",
			"reference", payment.Reference,
			"category", application.CategorizeError(err),
			"error", err)
		return nil, application.NewGatewayUnavailableError(err)
	}

	s.logger.Info("payment initialized",
		"reference", payment.Reference,
		"amount", payment.Amount.String(),
		"orders", len(payment.OrderIDs))

	return &PaymentInstructions{
		Reference:        payment.Reference,
		AuthorizationURL: resp.AuthorizationURL,
		AccessCode:       resp.AccessCode,
		Amount:           payment.Amount,
		Email:            payment.Email,
		PublicKey:        s.opts.PublicKey,
	}, nil
}

func (s *InitializeService) mapError(err error) error {
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return application.NewNotFoundError(err)
	case errors.Is(err, domain.ErrOrderAlreadyPaid):
		return application.NewConflictError(domain.ErrCodeOrderAlreadyPaid, err)
	case errors.Is(err, domain.ErrMissingRequiredField), errors.Is(err, domain.ErrInvalidAmount):
		return application.NewInvalidInputError(err)
	}
	if _, ok := application.IsServiceError(err); ok {
		return err
	}
	s.logger.Error("initialize payment: store failure", "error", err)
	return application.NewInternalError(err)
}

// insertWithReference generates a fresh reference and retries on conflict
// inside the caller's transaction.
func insertWithReference(ctx context.Context, tx application.LedgerTx, payment *domain.PaymentTransaction, prefix string) error {
	for range maxReferenceAttempts {
		reference, err := domain.GenerateReference(domain.FlowSimpleOrder, domain.ReferenceScope{
			Prefix: prefix,
			Tag:    domain.FlowTagPayment,
		})
		if err != nil {
			return err
		}
		payment.Reference = reference

		inserted, err := tx.InsertPayment(ctx, payment)
		if err != nil {
			return err
		}
		if inserted {
			return nil
		}
	}
	return &application.ServiceError{
		Code:       application.ErrCodeReferenceExhausted,
		Message:    "could not allocate a unique payment reference",
		HTTPStatus: http.StatusInternalServerError,
	}
}

func uniqueIDs(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
