package tasks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/config"
	"github.com/DanielPopoola/jmw-payments/internal/infrastructure/documents"
	"github.com/DanielPopoola/jmw-payments/internal/infrastructure/mailer"
	"github.com/DanielPopoola/jmw-payments/internal/infrastructure/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var company = config.CompanyConfig{Prefix: "JMW", Name: "JUME MEGA WEARS & ACCESSORIES", Email: "hello@jmw.ng"}

func newExecutor(sender mailer.Sender) *tasks.Executor {
	return tasks.NewExecutor(documents.NewRenderer(company), sender, company, discardLogger())
}

func TestExecutor_PaymentReceipt(t *testing.T) {
	sender := &mailer.Mock{}
	task := receiptTask(t, "JMW-PAY-A1B2C3D4")

	require.NoError(t, newExecutor(sender).Execute(context.Background(), task))

	sent := sender.Sent()
	require.Len(t, sent, 1)
	email := sent[0]
	assert.Equal(t, []string{"bola@example.com"}, email.To)
	assert.Equal(t, "JUME MEGA WEARS & ACCESSORIES: payment received (JMW-PAY-A1B2C3D4)", email.Subject)
	assert.Contains(t, email.TextBody, "Hello BOLA ADE")
	assert.Contains(t, email.TextBody, "NGN 10,000.00")
	require.Len(t, email.Attachments, 1)
	assert.Equal(t, "receipt-JMW-PAY-A1B2C3D4.txt", email.Attachments[0].Filename)
	assert.Contains(t, string(email.Attachments[0].Data), "PAYMENT RECEIPT")
}

func TestExecutor_CouponEntryReceipt(t *testing.T) {
	sender := &mailer.Mock{}
	task, err := application.NewReceiptTask(application.TaskEntryReceipt, application.ReceiptPayload{
		Reference:        "ORDER-5f0c6a62-6f55-4c8e-9d0f-2f1b6a3c9e11-0a8d2f64-3b5e-4c1f-8a2d-7e9b1c4d5f60",
		Email:            "chi@example.com",
		CustomerName:     "CHIOMA OBI",
		PaidAt:           fixedNow,
		OrganizationName: "LAGOS TECH CLUB",
		SerialNumber:     3,
		Size:             "XL",
		CouponCode:       "ABC12345",
	}, fixedNow)
	require.NoError(t, err)

	require.NoError(t, newExecutor(sender).Execute(context.Background(), task))

	email := sender.Sent()[0]
	assert.Equal(t, "JUME MEGA WEARS & ACCESSORIES: order #3 confirmed", email.Subject)
	assert.Contains(t, email.TextBody, "coupon ABC12345")
	assert.Contains(t, string(email.Attachments[0].Data), "ORDER RECEIPT")
}

func TestExecutor_Errors(t *testing.T) {
	t.Run("unknown kind", func(t *testing.T) {
		task := receiptTask(t, "JMW-PAY-A1B2C3D4")
		task.Kind = "invoice.pdf"
		err := newExecutor(&mailer.Mock{}).Execute(context.Background(), task)
		assert.ErrorIs(t, err, tasks.ErrUnknownTaskKind)
	})

	t.Run("bad payload", func(t *testing.T) {
		task := receiptTask(t, "JMW-PAY-A1B2C3D4")
		task.Payload = []byte(`[]`)
		err := newExecutor(&mailer.Mock{}).Execute(context.Background(), task)
		assert.Error(t, err)
	})

	t.Run("send failure", func(t *testing.T) {
		smtpDown := errors.New("dial tcp: connection refused")
		err := newExecutor(&mailer.Mock{Err: smtpDown}).Execute(context.Background(), receiptTask(t, "JMW-PAY-A1B2C3D4"))
		assert.ErrorIs(t, err, smtpDown)
	})
}
