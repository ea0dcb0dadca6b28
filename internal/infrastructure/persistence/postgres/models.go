package postgres

import (
	"time"

	"github.com/google/uuid"
)

// Row shapes as stored. Amounts are kobo.

type PaymentModel struct {
	ID               uuid.UUID
	Reference        string
	AmountKobo       int64
	Email            string
	Status           string
	OrderID          *uuid.UUID
	OrderIDs         []uuid.UUID
	GatewayReference *string
	VerifiedAt       *time.Time
	Metadata         map[string]any
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type OrderModel struct {
	ID        uuid.UUID
	Reference string
	Email     string
	FullName  string
	Phone     string
	TotalKobo int64
	Paid      bool
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type LinkModel struct {
	ID               uuid.UUID
	OrganizationName string
	PricePerItemKobo int64
	PaymentDeadline  time.Time
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type CouponModel struct {
	ID        uuid.UUID
	LinkID    uuid.UUID
	Code      string
	IsUsed    bool
	UsedAt    *time.Time
	CreatedAt time.Time
}

type EntryModel struct {
	ID               uuid.UUID
	LinkID           uuid.UUID
	SerialNumber     int
	Email            string
	FullName         string
	Size             string
	CustomName       string
	CouponID         *uuid.UUID
	CouponCode       *string
	Paid             bool
	PaymentReference *string
	PaidAt           *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
