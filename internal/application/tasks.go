package application

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/domain"
)

type TaskKind string

const (
	TaskPaymentReceipt TaskKind = "payment.receipt"
	TaskEntryReceipt   TaskKind = "entry.receipt"
)

// Task is a side-effect request. ID is derived from kind and reference so a
// redelivered task can be recognised downstream.
type Task struct {
	ID        string          `json:"id"`
	Kind      TaskKind        `json:"kind"`
	Reference string          `json:"reference"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type ReceiptLine struct {
	Description string      `json:"description"`
	Amount      domain.Kobo `json:"amount_kobo"`
}

type ReceiptPayload struct {
	Reference        string        `json:"reference"`
	Email            string        `json:"email"`
	CustomerName     string        `json:"customer_name"`
	Amount           domain.Kobo   `json:"amount_kobo"`
	PaidAt           time.Time     `json:"paid_at"`
	Lines            []ReceiptLine `json:"lines"`
	OrganizationName string        `json:"organization_name,omitempty"`
	SerialNumber     int           `json:"serial_number,omitempty"`
	Size             string        `json:"size,omitempty"`
	CustomName       string        `json:"custom_name,omitempty"`
	CouponCode       string        `json:"coupon_code,omitempty"`
}

func NewReceiptTask(kind TaskKind, payload ReceiptPayload, now time.Time) (Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Task{}, fmt.Errorf("marshal receipt payload: %w", err)
	}
	return Task{
		ID:        string(kind) + ":" + payload.Reference,
		Kind:      kind,
		Reference: payload.Reference,
		Payload:   raw,
		CreatedAt: now,
	}, nil
}

func (t Task) Receipt() (ReceiptPayload, error) {
	var payload ReceiptPayload
	if err := json.Unmarshal(t.Payload, &payload); err != nil {
		return ReceiptPayload{}, fmt.Errorf("decode %s payload: %w", t.Kind, err)
	}
	return payload, nil
}
