package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/application/services/testhelpers"
	"github.com/DanielPopoola/jmw-payments/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type LedgerTestSuite struct {
	suite.Suite
	testDB *testhelpers.TestDatabase
	ctx    context.Context
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (suite *LedgerTestSuite) SetupSuite() {
	suite.testDB = testhelpers.SetupTestDatabase(suite.T())
	suite.ctx = context.Background()
}

func (suite *LedgerTestSuite) TearDownSuite() {
	suite.testDB.Cleanup(suite.T())
}

func (suite *LedgerTestSuite) SetupTest() {
	suite.testDB.CleanTables(suite.T())
}

// ============================================================================
// PAYMENT TRANSACTIONS
// ============================================================================

func (suite *LedgerTestSuite) Test_InsertPayment_RoundTripsOrderLinks() {
	t := suite.T()
	ledger := suite.testDB.Ledger

	payment, orders := testhelpers.CreatePendingPayment(t, suite.ctx, ledger, time.Now().UTC(), 700_000, 300_000)

	stored, err := ledger.PaymentByReference(suite.ctx, payment.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.Kobo(1_000_000), stored.Amount)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.ElementsMatch(t, []uuid.UUID{orders[0].ID, orders[1].ID}, stored.OrderIDs)
	require.NotNil(t, stored.OrderID)
	assert.Equal(t, orders[0].ID, *stored.OrderID)

	linked, err := ledger.OrdersForPayment(suite.ctx, payment.ID)
	require.NoError(t, err)
	assert.Len(t, linked, 2)
}

func (suite *LedgerTestSuite) Test_InsertPayment_DuplicateReferenceReturnsFalse() {
	t := suite.T()
	ledger := suite.testDB.Ledger
	payment, orders := testhelpers.CreatePendingPayment(t, suite.ctx, ledger, time.Now().UTC(), 500_000)

	dup, err := domain.NewPaymentTransaction(uuid.New(), "other@example.com", 500_000, []uuid.UUID{orders[0].ID}, time.Now().UTC())
	require.NoError(t, err)
	dup.Reference = payment.Reference

	err = ledger.WithinTx(suite.ctx, func(ctx context.Context, tx application.LedgerTx) error {
		created, err := tx.InsertPayment(ctx, dup)
		require.NoError(t, err)
		assert.False(t, created)
		return nil
	})
	require.NoError(t, err)
}

func (suite *LedgerTestSuite) Test_PaymentByReference_NotFound() {
	_, err := suite.testDB.Ledger.PaymentByReference(suite.ctx, "JMW-PAY-NOPE0000")
	suite.ErrorIs(err, domain.ErrRecordNotFound)
}

func (suite *LedgerTestSuite) Test_UpdatePayment_SettlesAndMarksOrdersPaid() {
	t := suite.T()
	ledger := suite.testDB.Ledger
	payment, _ := testhelpers.CreatePendingPayment(t, suite.ctx, ledger, time.Now().UTC(), 250_000, 250_000)
	at := time.Now().UTC().Truncate(time.Microsecond)

	err := ledger.WithinTx(suite.ctx, func(ctx context.Context, tx application.LedgerTx) error {
		locked, err := tx.PaymentByReferenceForUpdate(ctx, payment.Reference)
		if err != nil {
			return err
		}
		if err := locked.MarkSucceeded("4099260516", at); err != nil {
			return err
		}
		if err := tx.UpdatePayment(ctx, locked); err != nil {
			return err
		}
		orders, err := tx.OrdersForPaymentForUpdate(ctx, locked.ID)
		if err != nil {
			return err
		}
		for _, o := range orders {
			o.MarkPaid(at)
			if err := tx.UpdateOrder(ctx, o); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	stored, err := ledger.PaymentByReference(suite.ctx, payment.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, stored.Status)
	require.NotNil(t, stored.GatewayReference)
	assert.Equal(t, "4099260516", *stored.GatewayReference)
	require.NotNil(t, stored.VerifiedAt)
	assert.True(t, at.Equal(*stored.VerifiedAt))

	orders, err := ledger.OrdersForPayment(suite.ctx, payment.ID)
	require.NoError(t, err)
	for _, o := range orders {
		assert.True(t, o.Paid)
		assert.Equal(t, domain.OrderStatusPaid, o.Status)
	}
}

func (suite *LedgerTestSuite) Test_UpdatePayment_NeverRevertsTerminalStatus() {
	t := suite.T()
	ledger := suite.testDB.Ledger
	payment, _ := testhelpers.CreatePendingPayment(t, suite.ctx, ledger, time.Now().UTC(), 100_000)

	require.NoError(t, ledger.WithinTx(suite.ctx, func(ctx context.Context, tx application.LedgerTx) error {
		p, err := tx.PaymentByReferenceForUpdate(ctx, payment.Reference)
		require.NoError(t, err)
		require.NoError(t, p.MarkSucceeded("", time.Now().UTC()))
		return tx.UpdatePayment(ctx, p)
	}))

	stale := *payment
	stale.Status = domain.StatusPending
	err := ledger.WithinTx(suite.ctx, func(ctx context.Context, tx application.LedgerTx) error {
		return tx.UpdatePayment(ctx, &stale)
	})
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	stored, err := ledger.PaymentByReference(suite.ctx, payment.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, stored.Status)
}

func (suite *LedgerTestSuite) Test_StalePendingPayments_OldestFirstAndLimited() {
	t := suite.T()
	ledger := suite.testDB.Ledger
	now := time.Now().UTC()

	oldest, _ := testhelpers.CreatePendingPayment(t, suite.ctx, ledger, now.Add(-3*time.Hour), 100_000)
	older, _ := testhelpers.CreatePendingPayment(t, suite.ctx, ledger, now.Add(-2*time.Hour), 100_000)
	_, _ = testhelpers.CreatePendingPayment(t, suite.ctx, ledger, now.Add(-90*time.Minute), 100_000)
	_, _ = testhelpers.CreatePendingPayment(t, suite.ctx, ledger, now, 100_000)

	stale, err := ledger.StalePendingPayments(suite.ctx, now.Add(-time.Hour), 2)
	require.NoError(t, err)
	require.Len(t, stale, 2)
	assert.Equal(t, oldest.Reference, stale[0].Reference)
	assert.Equal(t, older.Reference, stale[1].Reference)
}

func (suite *LedgerTestSuite) Test_CreateOrder_DuplicateReferenceReturnsFalse() {
	t := suite.T()
	now := time.Now().UTC()
	first, err := domain.NewOrder(uuid.New(), "JMW-ORD-DUPL0001", "a@example.com", "A", "", 100, now)
	require.NoError(t, err)
	second, err := domain.NewOrder(uuid.New(), "JMW-ORD-DUPL0001", "b@example.com", "B", "", 200, now)
	require.NoError(t, err)

	created, err := suite.testDB.Ledger.CreateOrder(suite.ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = suite.testDB.Ledger.CreateOrder(suite.ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
}

// ============================================================================
// BULK LINKS
// ============================================================================

func (suite *LedgerTestSuite) Test_CouponRedemption_PersistsCodeOnEntry() {
	t := suite.T()
	ledger := suite.testDB.Ledger
	link, _ := testhelpers.CreateLink(t, suite.ctx, ledger, 1_500_000, time.Now().Add(24*time.Hour), "ABCD2345")
	now := time.Now().UTC()

	var entryID uuid.UUID
	err := ledger.WithinTx(suite.ctx, func(ctx context.Context, tx application.LedgerTx) error {
		coupon, err := tx.CouponForUpdate(ctx, link.ID, "ABCD2345")
		if err != nil {
			return err
		}
		entry, err := domain.NewOrderEntry(uuid.New(), link.ID, 1, "e@example.com", "Eze", domain.SizeS, "", now)
		if err != nil {
			return err
		}
		if err := entry.RedeemCoupon(coupon, now); err != nil {
			return err
		}
		entryID = entry.ID
		if err := tx.InsertEntry(ctx, entry); err != nil {
			return err
		}
		return tx.UpdateCoupon(ctx, coupon)
	})
	require.NoError(t, err)

	entry, err := ledger.EntryByID(suite.ctx, link.ID, entryID)
	require.NoError(t, err)
	assert.True(t, entry.Paid)
	assert.Equal(t, "ABCD2345", entry.CouponCode)

	err = ledger.WithinTx(suite.ctx, func(ctx context.Context, tx application.LedgerTx) error {
		coupon, err := tx.CouponForUpdate(ctx, link.ID, "ABCD2345")
		require.NoError(t, err)
		assert.True(t, coupon.IsUsed)
		return nil
	})
	require.NoError(t, err)
}

func (suite *LedgerTestSuite) Test_CouponForUpdate_ScopedToLink() {
	t := suite.T()
	ledger := suite.testDB.Ledger
	_, _ = testhelpers.CreateLink(t, suite.ctx, ledger, 1_000, time.Now().Add(time.Hour), "SCOPE001")
	other, _ := testhelpers.CreateLink(t, suite.ctx, ledger, 1_000, time.Now().Add(time.Hour))

	err := ledger.WithinTx(suite.ctx, func(ctx context.Context, tx application.LedgerTx) error {
		_, err := tx.CouponForUpdate(ctx, other.ID, "SCOPE001")
		return err
	})
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func (suite *LedgerTestSuite) Test_UpdateEntry_PaidIsMonotonic() {
	t := suite.T()
	ledger := suite.testDB.Ledger
	link, _ := testhelpers.CreateLink(t, suite.ctx, ledger, 1_000, time.Now().Add(time.Hour))
	entry := testhelpers.CreateEntry(t, suite.ctx, ledger, link)

	require.NoError(t, ledger.WithinTx(suite.ctx, func(ctx context.Context, tx application.LedgerTx) error {
		locked, err := tx.EntryForUpdate(ctx, link.ID, entry.ID)
		require.NoError(t, err)
		require.NoError(t, locked.MarkPaid(locked.Reference(), time.Now().UTC()))
		return tx.UpdateEntry(ctx, locked)
	}))

	entry.Paid = false
	require.NoError(t, ledger.WithinTx(suite.ctx, func(ctx context.Context, tx application.LedgerTx) error {
		return tx.UpdateEntry(ctx, entry)
	}))

	stored, err := ledger.EntryByID(suite.ctx, link.ID, entry.ID)
	require.NoError(t, err)
	assert.True(t, stored.Paid)
	require.NotNil(t, stored.PaymentReference)
	assert.Equal(t, entry.Reference(), *stored.PaymentReference)
}

func (suite *LedgerTestSuite) Test_NextSerialNumber_ConcurrentSubmissionsAreGapless() {
	t := suite.T()
	ledger := suite.testDB.Ledger
	link, _ := testhelpers.CreateLink(t, suite.ctx, ledger, 1_000, time.Now().Add(time.Hour))

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- ledger.WithinTx(suite.ctx, func(ctx context.Context, tx application.LedgerTx) error {
				if _, err := tx.LinkForUpdate(ctx, link.ID); err != nil {
					return err
				}
				serial, err := tx.NextSerialNumber(ctx, link.ID)
				if err != nil {
					return err
				}
				entry, err := domain.NewOrderEntry(uuid.New(), link.ID, serial, "c@example.com", "Concurrent", domain.SizeM, "", time.Now().UTC())
				if err != nil {
					return err
				}
				return tx.InsertEntry(ctx, entry)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var serials []int
	rows, err := suite.testDB.DB.Pool.Query(suite.ctx, `SELECT serial_number FROM order_entries WHERE link_id = $1 ORDER BY serial_number`, link.ID)
	require.NoError(t, err)
	for rows.Next() {
		var n int
		require.NoError(t, rows.Scan(&n))
		serials = append(serials, n)
	}
	require.NoError(t, rows.Err())

	expected := make([]int, workers)
	for i := range expected {
		expected[i] = i + 1
	}
	assert.Equal(t, expected, serials)
}
