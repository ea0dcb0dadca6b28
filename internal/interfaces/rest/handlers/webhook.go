package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/application/services"
	"github.com/DanielPopoola/jmw-payments/internal/interfaces/rest"
)

const (
	SignatureHeader = "x-paystack-signature"
	maxBodyBytes    = 1 << 20
)

// HandlePaystackWebhook reconciles a gateway notification
// @Summary      Paystack webhook
// @Description  Verifies the HMAC-SHA512 signature of the raw body, routes the reference to its flow and settles it exactly once. Answers 2xx whenever a redelivery cannot help.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        x-paystack-signature  header    string           true  "HMAC-SHA512 hex digest of the raw body"
// @Success      200                   {object}  WebhookResponse  "Settled, already processed, ignored or unknown reference"
// @Failure      400                   {object}  WebhookResponse  "Invalid JSON, missing signature or failed verification"
// @Failure      403                   {object}  WebhookResponse  "Invalid signature"
// @Failure      404                   {object}  WebhookResponse  "Record not found"
// @Failure      405                   {object}  WebhookResponse  "Method not allowed"
// @Failure      409                   {object}  WebhookResponse  "Record already failed"
// @Failure      500                   {object}  WebhookResponse  "Store unavailable"
// @Router       /webhooks/paystack [post]
func (h *Handlers) HandlePaystackWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		rest.RespondJSON(w, http.StatusMethodNotAllowed, WebhookResponse{Status: "error", Message: "method not allowed"})
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		h.logger.Warn("webhook without signature", "remote_addr", r.RemoteAddr)
		rest.RespondJSON(w, http.StatusBadRequest, WebhookResponse{Status: "error", Message: "missing signature"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rest.RespondJSON(w, http.StatusRequestEntityTooLarge, WebhookResponse{Status: "error", Message: "body too large"})
			return
		}
		rest.RespondJSON(w, http.StatusBadRequest, WebhookResponse{Status: "error", Message: "could not read body"})
		return
	}

	result, err := h.webhooks.Route(r.Context(), body, signature)
	if errors.Is(err, services.ErrMalformedWebhook) {
		rest.RespondJSON(w, http.StatusBadRequest, WebhookResponse{Status: "error", Message: "invalid JSON"})
		return
	}
	if err != nil {
		h.logger.Error("webhook reconciliation failed", "error", err)
		rest.RespondJSON(w, http.StatusInternalServerError, WebhookResponse{Status: "error", Message: "internal error"})
		return
	}

	if result.Outcome == application.OutcomeInvalidSignature {
		h.logger.Warn("webhook signature rejected",
			"reference", result.Reference,
			"remote_addr", r.RemoteAddr)
	}

	status, resp := webhookResponse(result)
	rest.RespondJSON(w, status, resp)
}

func webhookResponse(result *application.ReconciliationResult) (int, WebhookResponse) {
	switch result.Outcome {
	case application.OutcomeSuccess:
		return http.StatusOK, WebhookResponse{Status: "success"}
	case application.OutcomeAlreadyProcessed:
		return http.StatusOK, WebhookResponse{Status: "success", Message: "Already processed"}
	case application.OutcomeIgnored:
		return http.StatusOK, WebhookResponse{Status: "ignored"}
	case application.OutcomeUnknownReference, application.OutcomeMalformedPayload:
		return http.StatusOK, WebhookResponse{Status: "error", Message: result.Message}
	case application.OutcomeInvalidSignature:
		return http.StatusForbidden, WebhookResponse{Status: "error", Message: "invalid signature"}
	case application.OutcomeVerificationFailed:
		return http.StatusBadRequest, WebhookResponse{Status: "error", Message: result.Message}
	case application.OutcomeRecordNotFound:
		return http.StatusNotFound, WebhookResponse{Status: "error", Message: result.Message}
	case application.OutcomeInvalidTransition:
		return http.StatusConflict, WebhookResponse{Status: "error", Message: result.Message}
	default:
		return http.StatusInternalServerError, WebhookResponse{Status: "error", Message: "unexpected outcome"}
	}
}
