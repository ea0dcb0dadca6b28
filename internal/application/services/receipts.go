package services

import (
	"fmt"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/domain"
)

func paymentReceipt(payment *domain.PaymentTransaction, orders []*domain.Order, paidAt time.Time) (application.Task, error) {
	payload := application.ReceiptPayload{
		Reference: payment.Reference,
		Email:     payment.Email,
		Amount:    payment.Amount,
		PaidAt:    paidAt,
	}
	for _, order := range orders {
		if payload.CustomerName == "" {
			payload.CustomerName = order.FullName
		}
		payload.Lines = append(payload.Lines, application.ReceiptLine{
			Description: "Order " + order.Reference,
			Amount:      order.Total,
		})
	}
	return application.NewReceiptTask(application.TaskPaymentReceipt, payload, paidAt)
}

func entryReceipt(link *domain.BulkOrderLink, entry *domain.OrderEntry, amount domain.Kobo) (application.Task, error) {
	var paidAt time.Time
	if entry.PaidAt != nil {
		paidAt = *entry.PaidAt
	}
	payload := application.ReceiptPayload{
		Reference:        entry.Reference(),
		Email:            entry.Email,
		CustomerName:     entry.FullName,
		Amount:           amount,
		PaidAt:           paidAt,
		OrganizationName: link.OrganizationName,
		SerialNumber:     entry.SerialNumber,
		Size:             string(entry.Size),
		CustomName:       entry.CustomName,
		CouponCode:       entry.CouponCode,
		Lines: []application.ReceiptLine{{
			Description: fmt.Sprintf("%s order #%d (size %s)", link.OrganizationName, entry.SerialNumber, entry.Size),
			Amount:      amount,
		}},
	}
	return application.NewReceiptTask(application.TaskEntryReceipt, payload, paidAt)
}
