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
	"github.com/google/uuid"
)

const DefaultCouponCount = 10

// orderReferenceTag marks simple-order references, keeping them apart from
// payment references under the same company prefix.
const orderReferenceTag = "ORD"

type CreateLinkCommand struct {
	OrganizationName string
	PricePerItem     domain.Kobo
	PaymentDeadline  time.Time
	CreatedBy        string
	Coupons          int
}

type CreateOrderCommand struct {
	Email    string
	FullName string
	Phone    string
	Total    domain.Kobo
}

// CatalogService creates the records the payment flows settle against:
// bulk-order links with their coupon batch, and simple orders.
type CatalogService struct {
	ledger application.Ledger
	prefix string
	now    application.Clock
	logger *slog.Logger
}

func NewCatalogService(ledger application.Ledger, referencePrefix string, clock application.Clock, logger *slog.Logger) *CatalogService {
	if clock == nil {
		clock = time.Now
	}
	return &CatalogService{
		ledger: ledger,
		prefix: referencePrefix,
		now:    clock,
		logger: logger,
	}
}

// CreateLink stores the link and its coupons in one transaction.
func (s *CatalogService) CreateLink(ctx context.Context, cmd CreateLinkCommand) (*domain.BulkOrderLink, []*domain.CouponCode, error) {
	count := cmd.Coupons
	if count < 0 {
		return nil, nil, application.NewFieldError(application.ErrCodeInvalidInput, "coupons", "coupon count cannot be negative")
	}

	now := s.now()
	link, err := domain.NewBulkOrderLink(uuid.New(), cmd.OrganizationName, cmd.PricePerItem, cmd.PaymentDeadline, cmd.CreatedBy, now)
	if err != nil {
		return nil, nil, application.NewInvalidInputError(err)
	}

	coupons := make([]*domain.CouponCode, 0, count)
	err = s.ledger.WithinTx(ctx, func(ctx context.Context, tx application.LedgerTx) error {
		if err := tx.InsertLink(ctx, link); err != nil {
			return err
		}
		for range count {
			coupon, err := insertCoupon(ctx, tx, link.ID, now)
			if err != nil {
				return err
			}
			coupons = append(coupons, coupon)
		}
		return nil
	})
	if err != nil {
		if _, ok := application.IsServiceError(err); ok {
			return nil, nil, err
		}
		s.logger.Error("create link: store failure", "error", err)
		return nil, nil, application.NewInternalError(err)
	}

	s.logger.Info("bulk order link created",
		"link_id", link.ID,
		"organization", link.OrganizationName,
		"coupons", len(coupons))
	return link, coupons, nil
}

func insertCoupon(ctx context.Context, tx application.LedgerTx, linkID uuid.UUID, now time.Time) (*domain.CouponCode, error) {
	for range maxReferenceAttempts {
		code, err := domain.GenerateCouponCode()
		if err != nil {
			return nil, err
		}
		coupon := &domain.CouponCode{
			ID:        uuid.New(),
			LinkID:    linkID,
			Code:      code,
			CreatedAt: now,
		}
		inserted, err := tx.InsertCoupon(ctx, coupon)
		if err != nil {
			return nil, err
		}
		if inserted {
			return coupon, nil
		}
	}
	return nil, &application.ServiceError{
		Code:       application.ErrCodeReferenceExhausted,
		Message:    "could not allocate a unique coupon code",
		HTTPStatus: http.StatusInternalServerError,
	}
}

func (s *CatalogService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	now := s.now()
	for range maxReferenceAttempts {
		reference, err := domain.GenerateReference(domain.FlowSimpleOrder, domain.ReferenceScope{
			Prefix: s.prefix,
			Tag:    orderReferenceTag,
		})
		if err != nil {
			return nil, application.NewInvalidInputError(err)
		}

		order, err := domain.NewOrder(uuid.New(), reference, cmd.Email, cmd.FullName, cmd.Phone, cmd.Total, now)
		if err != nil {
			return nil, application.NewInvalidInputError(err)
		}

		created, err := s.ledger.CreateOrder(ctx, order)
		if err != nil {
			if errors.Is(err, domain.ErrMissingRequiredField) {
				return nil, application.NewInvalidInputError(err)
			}
			return nil, application.NewInternalError(fmt.Errorf("create order: %w", err))
		}
		if created {
			return order, nil
		}
	}
	return nil, &application.ServiceError{
		Code:       application.ErrCodeReferenceExhausted,
		Message:    "could not allocate a unique order reference",
		HTTPStatus: http.StatusInternalServerError,
	}
}
