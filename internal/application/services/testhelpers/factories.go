package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// CreateLink stores a link with one unused coupon per code.
func CreateLink(
	t *testing.T,
	ctx context.Context,
	ledger application.Ledger,
	price domain.Kobo,
	deadline time.Time,
	codes ...string,
) (*domain.BulkOrderLink, []*domain.CouponCode) {
	t.Helper()

	now := time.Now().UTC()
	link, err := domain.NewBulkOrderLink(uuid.New(), "Test Organization", price, deadline, "tests", now)
	require.NoError(t, err)

	coupons := make([]*domain.CouponCode, 0, len(codes))
	err = ledger.WithinTx(ctx, func(ctx context.Context, tx application.LedgerTx) error {
		if err := tx.InsertLink(ctx, link); err != nil {
			return err
		}
		for _, code := range codes {
			coupon := &domain.CouponCode{ID: uuid.New(), LinkID: link.ID, Code: code, CreatedAt: now}
			created, err := tx.InsertCoupon(ctx, coupon)
			if err != nil {
				return err
			}
			require.True(t, created, "coupon %s already exists", code)
			coupons = append(coupons, coupon)
		}
		return nil
	})
	require.NoError(t, err)

	return link, coupons
}

// CreateEntry stores an unpaid entry under link with the next serial.
func CreateEntry(t *testing.T, ctx context.Context, ledger application.Ledger, link *domain.BulkOrderLink) *domain.OrderEntry {
	t.Helper()

	var entry *domain.OrderEntry
	err := ledger.WithinTx(ctx, func(ctx context.Context, tx application.LedgerTx) error {
		if _, err := tx.LinkForUpdate(ctx, link.ID); err != nil {
			return err
		}
		serial, err := tx.NextSerialNumber(ctx, link.ID)
		if err != nil {
			return err
		}
		entry, err = domain.NewOrderEntry(uuid.New(), link.ID, serial, "entry@example.com", "Test Entrant", domain.SizeM, "", time.Now().UTC())
		if err != nil {
			return err
		}
		return tx.InsertEntry(ctx, entry)
	})
	require.NoError(t, err)

	return entry
}

// CreatePendingPayment stores orders with the given totals and one pending
// transaction covering all of them, created at createdAt.
func CreatePendingPayment(
	t *testing.T,
	ctx context.Context,
	ledger application.Ledger,
	createdAt time.Time,
	totals ...domain.Kobo,
) (*domain.PaymentTransaction, []*domain.Order) {
	t.Helper()

	var sum domain.Kobo
	orders := make([]*domain.Order, 0, len(totals))
	orderIDs := make([]uuid.UUID, 0, len(totals))
	for _, total := range totals {
		suffix, err := domain.RandomCode(8)
		require.NoError(t, err)
		order, err := domain.NewOrder(uuid.New(), "JMW-ORD-"+suffix, "buyer@example.com", "Test Buyer", "08000000000", total, createdAt)
		require.NoError(t, err)

		created, err := ledger.CreateOrder(ctx, order)
		require.NoError(t, err)
		require.True(t, created)

		orders = append(orders, order)
		orderIDs = append(orderIDs, order.ID)
		sum += total
	}

	payment, err := domain.NewPaymentTransaction(uuid.New(), "buyer@example.com", sum, orderIDs, createdAt)
	require.NoError(t, err)
	suffix, err := domain.RandomCode(8)
	require.NoError(t, err)
	payment.Reference = "JMW-PAY-" + suffix

	err = ledger.WithinTx(ctx, func(ctx context.Context, tx application.LedgerTx) error {
		created, err := tx.InsertPayment(ctx, payment)
		if err != nil {
			return err
		}
		require.True(t, created)
		return nil
	})
	require.NoError(t, err)

	return payment, orders
}
