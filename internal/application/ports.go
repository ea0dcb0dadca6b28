package application

import (
	"context"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/domain"
	"github.com/google/uuid"
)

// GatewayClient is the port for the external payment provider.
type GatewayClient interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error)
	Verify(ctx context.Context, reference string) (*VerifyResponse, error)
}

type InitializeRequest struct {
	Reference   string
	Email       string
	Amount      domain.Kobo
	CallbackURL string
	Metadata    map[string]any
}

type InitializeResponse struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
}

// Gateway transaction statuses as reported by verify.
const (
	GatewayStatusSuccess   = "success"
	GatewayStatusFailed    = "failed"
	GatewayStatusAbandoned = "abandoned"
	GatewayStatusReversed  = "reversed"
	GatewayStatusPending   = "pending"
	GatewayStatusOngoing   = "ongoing"
)

type VerifyResponse struct {
	Reference        string
	Status           string
	Amount           domain.Kobo
	Currency         string
	GatewayReference string
	PaidAt           *time.Time
	CustomerEmail    string
}

// Ledger is the port for the transactional store. Every write to paid,
// status or is_used happens inside WithinTx on rows locked through LedgerTx.
type Ledger interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error

	PaymentByReference(ctx context.Context, reference string) (*domain.PaymentTransaction, error)
	OrdersForPayment(ctx context.Context, paymentID uuid.UUID) ([]*domain.Order, error)
	StalePendingPayments(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.PaymentTransaction, error)
	LinkByID(ctx context.Context, linkID uuid.UUID) (*domain.BulkOrderLink, error)
	EntryByID(ctx context.Context, linkID, entryID uuid.UUID) (*domain.OrderEntry, error)
	// CreateOrder returns false without error when the order reference is
	// taken.
	CreateOrder(ctx context.Context, order *domain.Order) (bool, error)
}

// LedgerTx exposes the row-locking reads and the writes available inside a
// transaction. ...ForUpdate methods take an exclusive row lock held until
// commit or rollback.
type LedgerTx interface {
	PaymentByReferenceForUpdate(ctx context.Context, reference string) (*domain.PaymentTransaction, error)
	// InsertPayment returns false without error when the reference is taken.
	InsertPayment(ctx context.Context, payment *domain.PaymentTransaction) (bool, error)
	UpdatePayment(ctx context.Context, payment *domain.PaymentTransaction) error

	OrdersForUpdate(ctx context.Context, orderIDs []uuid.UUID) ([]*domain.Order, error)
	OrdersForPaymentForUpdate(ctx context.Context, paymentID uuid.UUID) ([]*domain.Order, error)
	UpdateOrder(ctx context.Context, order *domain.Order) error

	InsertLink(ctx context.Context, link *domain.BulkOrderLink) error
	LinkByID(ctx context.Context, linkID uuid.UUID) (*domain.BulkOrderLink, error)
	LinkForUpdate(ctx context.Context, linkID uuid.UUID) (*domain.BulkOrderLink, error)
	// InsertCoupon returns false without error when the code is taken.
	InsertCoupon(ctx context.Context, coupon *domain.CouponCode) (bool, error)
	CouponForUpdate(ctx context.Context, linkID uuid.UUID, code string) (*domain.CouponCode, error)
	UpdateCoupon(ctx context.Context, coupon *domain.CouponCode) error

	NextSerialNumber(ctx context.Context, linkID uuid.UUID) (int, error)
	InsertEntry(ctx context.Context, entry *domain.OrderEntry) error
	EntryForUpdate(ctx context.Context, linkID, entryID uuid.UUID) (*domain.OrderEntry, error)
	UpdateEntry(ctx context.Context, entry *domain.OrderEntry) error
}

// TaskSink accepts fire-and-forget side-effect work. Implementations must
// not block on task execution.
type TaskSink interface {
	Enqueue(ctx context.Context, task Task) error
}

// Clock is injected so tests can pin timestamps.
type Clock func() time.Time
