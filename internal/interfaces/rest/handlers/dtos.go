package handlers

import (
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/application/services"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

type InitializePaymentRequest struct {
	OrderIDs    []openapi_types.UUID `json:"order_ids" validate:"required,min=1" example:"5f0c6a62-6f55-4c8e-9d0f-2f1b6a3c9e11"`
	Email       openapi_types.Email  `json:"email,omitempty" example:"buyer@example.com"`
	CallbackURL string               `json:"callback_url,omitempty" validate:"omitempty,url" example:"https://jmw.ng/payments/callback"`
}

type InitializePaymentResponse struct {
	Reference        string `json:"reference" example:"JMW-PAY-A1B2C3D4"`
	AuthorizationURL string `json:"authorization_url" example:"https://checkout.paystack.com/x1"`
	AccessCode       string `json:"access_code" example:"x1"`
	AmountKobo       int64  `json:"amount_kobo" example:"1250050"`
	Amount           string `json:"amount" example:"12500.50"`
	Email            string `json:"email" example:"buyer@example.com"`
	PublicKey        string `json:"public_key" example:"pk_test_abc"`
}

type VerifyPaymentRequest struct {
	Reference string `json:"reference" validate:"required" example:"JMW-PAY-A1B2C3D4"`
}

type VerifyPaymentResponse struct {
	Reference        string     `json:"reference" example:"JMW-PAY-A1B2C3D4"`
	Status           string     `json:"status" example:"success"`
	Flow             string     `json:"flow" example:"simple_order"`
	AlreadyProcessed bool       `json:"already_processed"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
}

type SubmitEntryRequest struct {
	Email      openapi_types.Email `json:"email" validate:"required" example:"chi@example.com"`
	FullName   string              `json:"full_name" validate:"required,max=200" example:"Chioma Obi"`
	Size       string              `json:"size" validate:"required" example:"XL" enums:"S,M,L,XL,XXL,XXXL,XXXXL"`
	CustomName string              `json:"custom_name,omitempty" validate:"max=100" example:"CHI"`
	CouponCode string              `json:"coupon_code,omitempty" validate:"omitempty,len=8" example:"ABC12345"`
}

type EntryPaymentResponse struct {
	Reference  string `json:"reference"`
	AmountKobo int64  `json:"amount_kobo" example:"1500000"`
	Email      string `json:"email"`
	PublicKey  string `json:"public_key"`
}

type SubmitEntryResponse struct {
	EntryID      openapi_types.UUID    `json:"entry_id"`
	SerialNumber int                   `json:"serial_number" example:"3"`
	Reference    string                `json:"reference"`
	Paid         bool                  `json:"paid"`
	CouponCode   string                `json:"coupon_code,omitempty"`
	Payment      *EntryPaymentResponse `json:"payment,omitempty"`
}

type PaymentResponse struct {
	Reference        string     `json:"reference"`
	Flow             string     `json:"flow" example:"simple_order"`
	Status           string     `json:"status" example:"pending"`
	AmountKobo       int64      `json:"amount_kobo"`
	Amount           string     `json:"amount" example:"12500.50"`
	Email            string     `json:"email"`
	GatewayReference *string    `json:"gateway_reference,omitempty"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	OrderReferences  []string   `json:"order_references,omitempty"`
	OrganizationName string     `json:"organization_name,omitempty"`
	SerialNumber     int        `json:"serial_number,omitempty"`
	CouponCode       string     `json:"coupon_code,omitempty"`
}

// WebhookResponse is the body the gateway sees. It is not wrapped in the
// API envelope.
type WebhookResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message,omitempty"`
}

func toInitializeResponse(p *services.PaymentInstructions) InitializePaymentResponse {
	return InitializePaymentResponse{
		Reference:        p.Reference,
		AuthorizationURL: p.AuthorizationURL,
		AccessCode:       p.AccessCode,
		AmountKobo:       int64(p.Amount),
		Amount:           p.Amount.String(),
		Email:            p.Email,
		PublicKey:        p.PublicKey,
	}
}

func toVerifyResponse(r *application.ReconciliationResult) VerifyPaymentResponse {
	return VerifyPaymentResponse{
		Reference:        r.Reference,
		Status:           "success",
		Flow:             r.Flow.String(),
		AlreadyProcessed: r.Outcome == application.OutcomeAlreadyProcessed,
		VerifiedAt:       r.VerifiedAt,
	}
}

func toEntryResponse(r *services.EntryResult) SubmitEntryResponse {
	resp := SubmitEntryResponse{
		EntryID:      r.Entry.ID,
		SerialNumber: r.Entry.SerialNumber,
		Reference:    r.Entry.Reference(),
		Paid:         r.Entry.Paid,
		CouponCode:   r.Entry.CouponCode,
	}
	if r.Payment != nil {
		resp.Payment = &EntryPaymentResponse{
			Reference:  r.Payment.Reference,
			AmountKobo: int64(r.Payment.Amount),
			Email:      r.Payment.Email,
			PublicKey:  r.Payment.PublicKey,
		}
	}
	return resp
}

func toPaymentResponse(v *services.PaymentView) PaymentResponse {
	return PaymentResponse{
		Reference:        v.Reference,
		Flow:             v.Flow.String(),
		Status:           v.Status,
		AmountKobo:       int64(v.Amount),
		Amount:           v.Amount.String(),
		Email:            v.Email,
		GatewayReference: v.GatewayReference,
		VerifiedAt:       v.VerifiedAt,
		CreatedAt:        v.CreatedAt,
		OrderReferences:  v.OrderReferences,
		OrganizationName: v.OrganizationName,
		SerialNumber:     v.SerialNumber,
		CouponCode:       v.CouponCode,
	}
}
