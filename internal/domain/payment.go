// Package domain holds the ledger entities, their state machines and the
// reference codec shared by the payment flows.
package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the current state of a payment transaction
type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusSuccess PaymentStatus = "success"
	StatusFailed  PaymentStatus = "failed"
)

// PaymentTransaction is the ledger record for a simple-order payment.
type PaymentTransaction struct {
	ID        uuid.UUID
	Reference string
	Amount    Kobo
	Email     string
	Status    PaymentStatus

	// OrderID is the primary order; OrderIDs carries every order the
	// transaction pays for, the primary one included.
	OrderID  *uuid.UUID
	OrderIDs []uuid.UUID

	GatewayReference *string
	VerifiedAt       *time.Time
	Metadata         map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewPaymentTransaction(
	id uuid.UUID,
	email string,
	amount Kobo,
	orderIDs []uuid.UUID,
	now time.Time,
) (*PaymentTransaction, error) {
	if id == uuid.Nil {
		return nil, NewMissingRequiredFieldError("payment ID")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, NewMissingRequiredFieldError("email")
	}
	if amount <= 0 {
		return nil, NewInvalidAmountError(amount)
	}
	if len(orderIDs) == 0 {
		return nil, NewMissingRequiredFieldError("order")
	}

	primary := orderIDs[0]
	return &PaymentTransaction{
		ID:        id,
		Amount:    amount,
		Email:     email,
		Status:    StatusPending,
		OrderID:   &primary,
		OrderIDs:  slices.Clone(orderIDs),
		Metadata:  map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkSucceeded records the first successful verification. VerifiedAt is
// never overwritten.
func (p *PaymentTransaction) MarkSucceeded(gatewayReference string, verifiedAt time.Time) error {
	if err := p.transition(StatusSuccess); err != nil {
		return err
	}
	if gatewayReference != "" {
		p.GatewayReference = &gatewayReference
	}
	if p.VerifiedAt == nil {
		p.VerifiedAt = &verifiedAt
	}
	p.UpdatedAt = verifiedAt
	return nil
}

func (p *PaymentTransaction) MarkFailed(reason string, at time.Time) error {
	if err := p.transition(StatusFailed); err != nil {
		return err
	}
	if p.Metadata == nil {
		p.Metadata = map[string]any{}
	}
	if reason != "" {
		p.Metadata["failure_reason"] = reason
	}
	p.UpdatedAt = at
	return nil
}

func (p *PaymentTransaction) IsTerminal() bool {
	return p.Status == StatusSuccess || p.Status == StatusFailed
}

func (p *PaymentTransaction) transition(target PaymentStatus) error {
	if err := p.canTransitionTo(target); err != nil {
		return err
	}
	p.Status = target
	return nil
}

func (p *PaymentTransaction) canTransitionTo(target PaymentStatus) error {
	switch p.Status {
	case StatusPending:
		return p.allow(target, StatusSuccess, StatusFailed)
	}
	return NewInvalidTransitionError(p.Status, target)
}

func (p *PaymentTransaction) allow(target PaymentStatus, allowed ...PaymentStatus) error {
	if slices.Contains(allowed, target) {
		return nil
	}
	return NewInvalidTransitionError(p.Status, target)
}
