package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/domain"
)

// ChargeSuccessEvent is the only webhook event that triggers reconciliation.
const ChargeSuccessEvent = "charge.success"

var ErrMalformedWebhook = errors.New("webhook body is not valid JSON")

// Reconciler settles a reference for one flow.
type Reconciler interface {
	Reconcile(ctx context.Context, reference string, claim application.Claim) (*application.ReconciliationResult, error)
}

// WebhookEvent is the subset of the gateway payload the router reads.
type WebhookEvent struct {
	Event     string
	Reference string
}

// readWebhookEvent pulls event and data.reference out of a JSON body without
// trusting its shape. ok is false when either field has the wrong type.
func readWebhookEvent(body []byte) (WebhookEvent, bool) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return WebhookEvent{}, false
	}

	var event WebhookEvent
	if raw, found := envelope["event"]; found {
		if err := json.Unmarshal(raw, &event.Event); err != nil {
			return event, false
		}
	}

	raw, found := envelope["data"]
	if !found || string(raw) == "null" {
		return event, true
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		return event, false
	}
	if ref, found := data["reference"]; found && string(ref) != "null" {
		if err := json.Unmarshal(ref, &event.Reference); err != nil {
			return event, false
		}
	}
	return event, true
}

// WebhookRouter reads the reference from a webhook body and forwards the
// untouched body to the reconciler for its flow.
type WebhookRouter struct {
	bulk     Reconciler
	simple   Reconciler
	verifier *SignatureVerifier
	logger   *slog.Logger
}

func NewWebhookRouter(bulk, simple Reconciler, verifier *SignatureVerifier, logger *slog.Logger) *WebhookRouter {
	return &WebhookRouter{
		bulk:     bulk,
		simple:   simple,
		verifier: verifier,
		logger:   logger,
	}
}

// Route returns ErrMalformedWebhook only for a body that is not JSON. The
// signature is checked before anything in the body is acted on. Everything
// else, including bodies of the wrong shape and unreadable references, comes
// back as a result.
func (r *WebhookRouter) Route(ctx context.Context, body []byte, signature string) (*application.ReconciliationResult, error) {
	if !json.Valid(body) {
		return nil, ErrMalformedWebhook
	}

	event, ok := readWebhookEvent(body)
	reference := event.Reference

	if !r.verifier.Verify(body, signature) {
		r.logger.Warn("webhook signature mismatch", "event", event.Event, "reference", reference)
		return application.NewResult(application.OutcomeInvalidSignature, reference, domain.FlowUnknown, "invalid signature"), nil
	}

	if !ok {
		r.logger.Info("webhook payload has unexpected shape")
		return application.NewResult(application.OutcomeMalformedPayload, reference, domain.FlowUnknown, "malformed payload"), nil
	}

	if event.Event != ChargeSuccessEvent {
		r.logger.Debug("ignoring webhook event", "event", event.Event, "reference", reference)
		return application.NewResult(application.OutcomeIgnored, reference, domain.FlowUnknown, "event ignored"), nil
	}

	claim := application.WebhookClaim(body, signature)

	parsed, err := domain.DecodeReference(reference)
	if err != nil {
		return r.fallback(reference), nil
	}

	switch parsed.Kind {
	case domain.FlowBulkOrder:
		return r.bulk.Reconcile(ctx, reference, claim)
	case domain.FlowSimpleOrder:
		return r.simple.Reconcile(ctx, reference, claim)
	default:
		return r.fallback(reference), nil
	}
}

// fallback answers for authenticated charge events no flow claims.
func (r *WebhookRouter) fallback(reference string) *application.ReconciliationResult {
	if reference == "" {
		r.logger.Info("webhook without reference")
		return application.NewResult(application.OutcomeMalformedPayload, reference, domain.FlowUnknown, "missing reference")
	}
	r.logger.Info("webhook for unknown reference", "reference", reference)
	return application.NewResult(application.OutcomeUnknownReference, reference, domain.FlowUnknown, "unknown reference")
}
