package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a simple-flow order. Paid is monotonic.
type Order struct {
	ID        uuid.UUID
	Reference string
	Email     string
	FullName  string
	Phone     string
	Total     Kobo
	Paid      bool
	Status    OrderStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewOrder(id uuid.UUID, reference, email, fullName, phone string, total Kobo, now time.Time) (*Order, error) {
	if reference == "" {
		return nil, NewMissingRequiredFieldError("order reference")
	}
	if strings.TrimSpace(email) == "" {
		return nil, NewMissingRequiredFieldError("email")
	}
	if total <= 0 {
		return nil, NewInvalidAmountError(total)
	}
	return &Order{
		ID:        id,
		Reference: reference,
		Email:     strings.TrimSpace(email),
		FullName:  strings.TrimSpace(fullName),
		Phone:     strings.TrimSpace(phone),
		Total:     total,
		Status:    OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkPaid is a no-op for an order that is already paid.
func (o *Order) MarkPaid(at time.Time) {
	if o.Paid {
		return
	}
	o.Paid = true
	o.Status = OrderStatusPaid
	o.UpdatedAt = at
}
