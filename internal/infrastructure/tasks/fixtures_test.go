package tasks_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func receiptTask(t *testing.T, reference string) application.Task {
	t.Helper()
	task, err := application.NewReceiptTask(application.TaskPaymentReceipt, application.ReceiptPayload{
		Reference:    reference,
		Email:        "bola@example.com",
		CustomerName: "BOLA ADE",
		Amount:       1_000_000,
		PaidAt:       fixedNow,
		Lines:        []application.ReceiptLine{{Description: "Order JMW-ORD-AAAA1111", Amount: 1_000_000}},
	}, fixedNow)
	require.NoError(t, err)
	return task
}
