package application

import (
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/domain"
)

// Outcome is the result taxonomy of a reconciliation attempt.
type Outcome string

const (
	OutcomeSuccess            Outcome = "SUCCESS"
	OutcomeAlreadyProcessed   Outcome = "ALREADY_PROCESSED"
	OutcomeInvalidSignature   Outcome = "INVALID_SIGNATURE"
	OutcomeVerificationFailed Outcome = "VERIFICATION_FAILED"
	OutcomeUnknownReference   Outcome = "UNKNOWN_REFERENCE"
	OutcomeRecordNotFound     Outcome = "RECORD_NOT_FOUND"
	OutcomeMalformedPayload   Outcome = "MALFORMED_PAYLOAD"

	// OutcomeIgnored is a webhook event that needs no reconciliation.
	OutcomeIgnored Outcome = "IGNORED"
	// OutcomeInvalidTransition is a verified success against a record that
	// already failed.
	OutcomeInvalidTransition Outcome = "INVALID_TRANSITION"
	// OutcomeStillPending is reported by the sweeper when the gateway has no
	// final answer yet.
	OutcomeStillPending Outcome = "STILL_PENDING"
	// OutcomeFailed is reported by the sweeper after it fails a stale payment.
	OutcomeFailed Outcome = "FAILED"
)

type ClaimSource string

const (
	SourceWebhook ClaimSource = "webhook"
	SourceClient  ClaimSource = "client"
	SourceSweeper ClaimSource = "sweeper"
)

// Claim describes who is asking for a reconciliation. Only webhook claims
// carry a body and signature.
type Claim struct {
	Source    ClaimSource
	Body      []byte
	Signature string
}

func WebhookClaim(body []byte, signature string) Claim {
	return Claim{Source: SourceWebhook, Body: body, Signature: signature}
}

func ClientClaim() Claim {
	return Claim{Source: SourceClient}
}

func SweeperClaim() Claim {
	return Claim{Source: SourceSweeper}
}

type ReconciliationResult struct {
	Outcome    Outcome
	Reference  string
	Flow       domain.FlowKind
	Message    string
	VerifiedAt *time.Time
}

// Settled reports a fresh success or a replay of one.
func (r *ReconciliationResult) Settled() bool {
	return r.Outcome == OutcomeSuccess || r.Outcome == OutcomeAlreadyProcessed
}

func NewResult(outcome Outcome, reference string, flow domain.FlowKind, message string) *ReconciliationResult {
	return &ReconciliationResult{
		Outcome:   outcome,
		Reference: reference,
		Flow:      flow,
		Message:   message,
	}
}
