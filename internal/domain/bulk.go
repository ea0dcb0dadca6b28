package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BulkOrderLink is the parent of a set of order entries sharing one price
// and one batch of coupons.
type BulkOrderLink struct {
	ID               uuid.UUID
	OrganizationName string
	PricePerItem     Kobo
	PaymentDeadline  time.Time
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewBulkOrderLink(
	id uuid.UUID,
	organizationName string,
	pricePerItem Kobo,
	deadline time.Time,
	createdBy string,
	now time.Time,
) (*BulkOrderLink, error) {
	name := strings.ToUpper(strings.TrimSpace(organizationName))
	if name == "" {
		return nil, NewMissingRequiredFieldError("organization name")
	}
	if pricePerItem <= 0 {
		return nil, NewInvalidAmountError(pricePerItem)
	}
	if deadline.IsZero() {
		return nil, NewMissingRequiredFieldError("payment deadline")
	}
	return &BulkOrderLink{
		ID:               id,
		OrganizationName: name,
		PricePerItem:     pricePerItem,
		PaymentDeadline:  deadline,
		CreatedBy:        createdBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (l *BulkOrderLink) IsExpired(now time.Time) bool {
	return now.After(l.PaymentDeadline)
}

// Size is the garment size chosen on an order entry.
type Size string

const (
	SizeS     Size = "S"
	SizeM     Size = "M"
	SizeL     Size = "L"
	SizeXL    Size = "XL"
	SizeXXL   Size = "XXL"
	SizeXXXL  Size = "XXXL"
	SizeXXXXL Size = "XXXXL"
)

var sizes = []Size{SizeS, SizeM, SizeL, SizeXL, SizeXXL, SizeXXXL, SizeXXXXL}

func ParseSize(s string) (Size, error) {
	size := Size(strings.ToUpper(strings.TrimSpace(s)))
	if !slices.Contains(sizes, size) {
		return "", ErrInvalidSize
	}
	return size, nil
}

// OrderEntry is one participant's order under a BulkOrderLink.
type OrderEntry struct {
	ID               uuid.UUID
	LinkID           uuid.UUID
	SerialNumber     int
	Email            string
	FullName         string
	Size             Size
	CustomName       string
	CouponID         *uuid.UUID
	CouponCode       string
	Paid             bool
	PaymentReference *string
	PaidAt           *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewOrderEntry(
	id uuid.UUID,
	linkID uuid.UUID,
	serial int,
	email, fullName string,
	size Size,
	customName string,
	now time.Time,
) (*OrderEntry, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, NewMissingRequiredFieldError("email")
	}
	fullName = strings.ToUpper(strings.TrimSpace(fullName))
	if fullName == "" {
		return nil, NewMissingRequiredFieldError("full name")
	}
	return &OrderEntry{
		ID:           id,
		LinkID:       linkID,
		SerialNumber: serial,
		Email:        email,
		FullName:     fullName,
		Size:         size,
		CustomName:   strings.ToUpper(strings.TrimSpace(customName)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Reference is the gateway reference for paying this entry.
func (e *OrderEntry) Reference() string {
	return EncodeBulkReference(e.LinkID, e.ID)
}

// RedeemCoupon consumes the coupon and marks the entry paid. Both records
// must be persisted in the same transaction.
func (e *OrderEntry) RedeemCoupon(c *CouponCode, at time.Time) error {
	if c.LinkID != e.LinkID {
		return ErrCouponInvalid
	}
	if err := c.MarkUsed(at); err != nil {
		return err
	}
	id := c.ID
	e.CouponID = &id
	e.CouponCode = c.Code
	e.Paid = true
	e.PaidAt = &at
	e.UpdatedAt = at
	return nil
}

// MarkPaid records a gateway-confirmed payment. Paid never reverts.
func (e *OrderEntry) MarkPaid(reference string, at time.Time) error {
	if e.Paid {
		return ErrInvalidTransition
	}
	e.Paid = true
	e.PaymentReference = &reference
	e.PaidAt = &at
	e.UpdatedAt = at
	return nil
}

// CouponCode is single-use and scoped to one link.
type CouponCode struct {
	ID        uuid.UUID
	LinkID    uuid.UUID
	Code      string
	IsUsed    bool
	UsedAt    *time.Time
	CreatedAt time.Time
}

func (c *CouponCode) MarkUsed(at time.Time) error {
	if c.IsUsed {
		return ErrCouponAlreadyUsed
	}
	c.IsUsed = true
	c.UsedAt = &at
	return nil
}

// NormalizeCouponCode upper-cases and trims user input before lookup.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
