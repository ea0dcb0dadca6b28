package postgres

import (
	"github.com/DanielPopoola/jmw-payments/internal/domain"
)

func paymentToDomain(m PaymentModel) *domain.PaymentTransaction {
	metadata := m.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &domain.PaymentTransaction{
		ID:               m.ID,
		Reference:        m.Reference,
		Amount:           domain.Kobo(m.AmountKobo),
		Email:            m.Email,
		Status:           domain.PaymentStatus(m.Status),
		OrderID:          m.OrderID,
		OrderIDs:         m.OrderIDs,
		GatewayReference: m.GatewayReference,
		VerifiedAt:       m.VerifiedAt,
		Metadata:         metadata,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func paymentToModel(p *domain.PaymentTransaction) PaymentModel {
	metadata := p.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return PaymentModel{
		ID:               p.ID,
		Reference:        p.Reference,
		AmountKobo:       int64(p.Amount),
		Email:            p.Email,
		Status:           string(p.Status),
		OrderID:          p.OrderID,
		OrderIDs:         p.OrderIDs,
		GatewayReference: p.GatewayReference,
		VerifiedAt:       p.VerifiedAt,
		Metadata:         metadata,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func orderToDomain(m OrderModel) *domain.Order {
	return &domain.Order{
		ID:        m.ID,
		Reference: m.Reference,
		Email:     m.Email,
		FullName:  m.FullName,
		Phone:     m.Phone,
		Total:     domain.Kobo(m.TotalKobo),
		Paid:      m.Paid,
		Status:    domain.OrderStatus(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func orderToModel(o *domain.Order) OrderModel {
	return OrderModel{
		ID:        o.ID,
		Reference: o.Reference,
		Email:     o.Email,
		FullName:  o.FullName,
		Phone:     o.Phone,
		TotalKobo: int64(o.Total),
		Paid:      o.Paid,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func linkToDomain(m LinkModel) *domain.BulkOrderLink {
	return &domain.BulkOrderLink{
		ID:               m.ID,
		OrganizationName: m.OrganizationName,
		PricePerItem:     domain.Kobo(m.PricePerItemKobo),
		PaymentDeadline:  m.PaymentDeadline,
		CreatedBy:        m.CreatedBy,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func couponToDomain(m CouponModel) *domain.CouponCode {
	return &domain.CouponCode{
		ID:        m.ID,
		LinkID:    m.LinkID,
		Code:      m.Code,
		IsUsed:    m.IsUsed,
		UsedAt:    m.UsedAt,
		CreatedAt: m.CreatedAt,
	}
}

func entryToDomain(m EntryModel) *domain.OrderEntry {
	e := &domain.OrderEntry{
		ID:               m.ID,
		LinkID:           m.LinkID,
		SerialNumber:     m.SerialNumber,
		Email:            m.Email,
		FullName:         m.FullName,
		Size:             domain.Size(m.Size),
		CustomName:       m.CustomName,
		CouponID:         m.CouponID,
		Paid:             m.Paid,
		PaymentReference: m.PaymentReference,
		PaidAt:           m.PaidAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.CouponCode != nil {
		e.CouponCode = *m.CouponCode
	}
	return e
}
