// Package handlers serves the webhook endpoint and the client payment API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/application/services"
	"github.com/DanielPopoola/jmw-payments/internal/interfaces/rest"
	"github.com/DanielPopoola/jmw-payments/internal/interfaces/rest/docs"
	"github.com/DanielPopoola/jmw-payments/internal/metrics"
	"github.com/go-playground/validator"
)

type WebhookRouter interface {
	Route(ctx context.Context, body []byte, signature string) (*application.ReconciliationResult, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, reference string, claim application.Claim) (*application.ReconciliationResult, error)
}

type PaymentInitializer interface {
	Initialize(ctx context.Context, cmd services.InitializePaymentCommand) (*services.PaymentInstructions, error)
}

type EntrySubmitter interface {
	SubmitEntry(ctx context.Context, cmd services.SubmitEntryCommand) (*services.EntryResult, error)
}

type PaymentQuerier interface {
	FindByReference(ctx context.Context, reference string) (*services.PaymentView, error)
}

type Handlers struct {
	webhooks    WebhookRouter
	reconciler  Reconciler
	initializer PaymentInitializer
	entries     EntrySubmitter
	query       PaymentQuerier
	validate    *validator.Validate
	logger      *slog.Logger
}

func NewHandlers(
	webhooks WebhookRouter,
	reconciler Reconciler,
	initializer PaymentInitializer,
	entries EntrySubmitter,
	query PaymentQuerier,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		webhooks:    webhooks,
		reconciler:  reconciler,
		initializer: initializer,
		entries:     entries,
		query:       query,
		validate:    validator.New(),
		logger:      logger,
	}
}

func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/webhooks/paystack", h.HandlePaystackWebhook)
	mux.HandleFunc("POST /api/v1/payments/initialize", h.HandleInitialize)
	mux.HandleFunc("POST /api/v1/payments/verify", h.HandleVerify)
	mux.HandleFunc("GET /api/v1/payments/{reference}", h.HandleGetPayment)
	mux.HandleFunc("POST /api/v1/links/{linkID}/entries", h.HandleSubmitEntry)
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.HandleFunc("GET /swagger/doc.json", h.HandleSwaggerDoc)
	mux.Handle("GET /metrics", metrics.Handler())
}

// HandleHealth reports liveness
// @Summary      Liveness probe
// @Tags         ops
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /healthz [get]
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	rest.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) HandleSwaggerDoc(w http.ResponseWriter, _ *http.Request) {
	doc := docs.SwaggerInfo.ReadDoc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}
