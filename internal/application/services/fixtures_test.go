package services_test

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/application/mocks"
	"github.com/DanielPopoola/jmw-payments/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "sk_test_webhook"

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func chargeSuccessBody(reference string) []byte {
	return fmt.Appendf(nil, `{"event":"charge.success","data":{"reference":%q,"status":"success","amount":1500000}}`, reference)
}

func gatewaySuccess(reference string, amount domain.Kobo) *application.VerifyResponse {
	paidAt := fixedNow
	return &application.VerifyResponse{
		Reference:        reference,
		Status:           application.GatewayStatusSuccess,
		Amount:           amount,
		Currency:         "NGN",
		GatewayReference: "T" + reference[len(reference)-6:],
		PaidAt:           &paidAt,
	}
}

func gatewayStatus(reference, status string, amount domain.Kobo) *application.VerifyResponse {
	return &application.VerifyResponse{Reference: reference, Status: status, Amount: amount, Currency: "NGN"}
}

type bulkFixture struct {
	link   *domain.BulkOrderLink
	entry  *domain.OrderEntry
	coupon *domain.CouponCode
}

func (f bulkFixture) reference() string {
	return f.entry.Reference()
}

func seedBulkEntry(t *testing.T, ledger *mocks.MemoryLedger) bulkFixture {
	t.Helper()

	link, err := domain.NewBulkOrderLink(uuid.New(), "lagos tech club", 1_500_000, fixedNow.Add(72*time.Hour), "admin", fixedNow)
	require.NoError(t, err)
	coupon := &domain.CouponCode{ID: uuid.New(), LinkID: link.ID, Code: "ABC12345", CreatedAt: fixedNow}
	ledger.SeedLink(link, coupon)

	entry, err := domain.NewOrderEntry(uuid.New(), link.ID, 1, "ada@example.com", "Ada Lovelace", domain.SizeL, "ada", fixedNow)
	require.NoError(t, err)
	ledger.SeedEntry(entry)

	return bulkFixture{link: link, entry: entry, coupon: coupon}
}

type simpleFixture struct {
	orders  []*domain.Order
	payment *domain.PaymentTransaction
}

func seedSimplePayment(t *testing.T, ledger *mocks.MemoryLedger, status domain.PaymentStatus) simpleFixture {
	t.Helper()

	first, err := domain.NewOrder(uuid.New(), "JMW-ORD-AAAA1111", "bola@example.com", "Bola Ade", "0801", 700_000, fixedNow)
	require.NoError(t, err)
	second, err := domain.NewOrder(uuid.New(), "JMW-ORD-BBBB2222", "bola@example.com", "Bola Ade", "0801", 300_000, fixedNow)
	require.NoError(t, err)
	ledger.SeedOrder(first)
	ledger.SeedOrder(second)

	payment, err := domain.NewPaymentTransaction(uuid.New(), "bola@example.com", 1_000_000, []uuid.UUID{first.ID, second.ID}, fixedNow.Add(-2*time.Hour))
	require.NoError(t, err)
	payment.Reference = "JMW-PAY-" + randomSuffix(t)
	payment.Status = status
	ledger.SeedPayment(payment)

	return simpleFixture{orders: []*domain.Order{first, second}, payment: payment}
}

func randomSuffix(t *testing.T) string {
	t.Helper()
	code, err := domain.RandomCode(8)
	require.NoError(t, err)
	return code
}
