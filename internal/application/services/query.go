package services

import (
	"context"
	"errors"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/domain"
)

// PaymentView is the ledger state behind a gateway reference, for either
// flow.
type PaymentView struct {
	Reference        string
	Flow             domain.FlowKind
	Status           string
	Amount           domain.Kobo
	Email            string
	GatewayReference *string
	VerifiedAt       *time.Time
	CreatedAt        time.Time

	OrderReferences []string

	OrganizationName string
	SerialNumber     int
	CouponCode       string
}

type QueryService struct {
	ledger application.Ledger
}

func NewQueryService(ledger application.Ledger) *QueryService {
	return &QueryService{ledger: ledger}
}

func (s *QueryService) FindByReference(ctx context.Context, reference string) (*PaymentView, error) {
	parsed, err := domain.DecodeReference(reference)
	if err != nil {
		return nil, application.NewNotFoundError(err)
	}

	var view *PaymentView
	switch parsed.Kind {
	case domain.FlowBulkOrder:
		view, err = s.entryView(ctx, parsed)
	default:
		view, err = s.paymentView(ctx, parsed)
	}
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, application.NewNotFoundError(err)
	}
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return view, nil
}

func (s *QueryService) paymentView(ctx context.Context, parsed domain.ParsedReference) (*PaymentView, error) {
	payment, err := s.ledger.PaymentByReference(ctx, parsed.Raw)
	if err != nil {
		return nil, err
	}
	orders, err := s.ledger.OrdersForPayment(ctx, payment.ID)
	if err != nil {
		return nil, err
	}

	view := &PaymentView{
		Reference:        payment.Reference,
		Flow:             parsed.Kind,
		Status:           string(payment.Status),
		Amount:           payment.Amount,
		Email:            payment.Email,
		GatewayReference: payment.GatewayReference,
		VerifiedAt:       payment.VerifiedAt,
		CreatedAt:        payment.CreatedAt,
	}
	for _, order := range orders {
		view.OrderReferences = append(view.OrderReferences, order.Reference)
	}
	return view, nil
}

func (s *QueryService) entryView(ctx context.Context, parsed domain.ParsedReference) (*PaymentView, error) {
	entry, err := s.ledger.EntryByID(ctx, parsed.ParentID, parsed.ChildID)
	if err != nil {
		return nil, err
	}
	link, err := s.ledger.LinkByID(ctx, parsed.ParentID)
	if err != nil {
		return nil, err
	}

	status := string(domain.StatusPending)
	if entry.Paid {
		status = string(domain.StatusSuccess)
	}
	amount := link.PricePerItem
	if entry.CouponID != nil {
		amount = 0
	}
	return &PaymentView{
		Reference:        parsed.Raw,
		Flow:             parsed.Kind,
		Status:           status,
		Amount:           amount,
		Email:            entry.Email,
		VerifiedAt:       entry.PaidAt,
		CreatedAt:        entry.CreatedAt,
		OrganizationName: link.OrganizationName,
		SerialNumber:     entry.SerialNumber,
		CouponCode:       entry.CouponCode,
	}, nil
}
