package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/application/services"
	"github.com/DanielPopoola/jmw-payments/internal/interfaces/rest"
)

// HandleInitialize starts a checkout for unpaid orders
// @Summary      Initialize a payment
// @Description  Locks the selected unpaid orders, records a pending payment for their total and returns the gateway checkout details.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request  body      InitializePaymentRequest  true  "Orders to pay for"
// @Success      201      {object}  rest.APIResponse{data=InitializePaymentResponse}
// @Failure      400      {object}  rest.ErrorResponse  "Invalid request"
// @Failure      404      {object}  rest.ErrorResponse  "Order not found"
// @Failure      409      {object}  rest.ErrorResponse  "Order already paid"
// @Failure      502      {object}  rest.ErrorResponse  "Gateway unavailable"
// @Router       /api/v1/payments/initialize [post]
func (h *Handlers) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	var req InitializePaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	instructions, err := h.initializer.Initialize(r.Context(), services.InitializePaymentCommand{
		OrderIDs:    req.OrderIDs,
		Email:       string(req.Email),
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.RespondData(w, http.StatusCreated, toInitializeResponse(instructions))
}

// HandleVerify reconciles a payment on the client's return from checkout
// @Summary      Verify a payment
// @Description  Confirms the reference with the gateway and settles it exactly once. A replay reports already_processed.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request  body      VerifyPaymentRequest  true  "Reference to verify"
// @Success      200      {object}  rest.APIResponse{data=VerifyPaymentResponse}
// @Failure      400      {object}  rest.ErrorResponse  "Verification failed or reference unknown"
// @Failure      404      {object}  rest.ErrorResponse  "Record not found"
// @Failure      409      {object}  rest.ErrorResponse  "Record already failed"
// @Failure      500      {object}  rest.ErrorResponse  "Store unavailable"
// @Router       /api/v1/payments/verify [post]
func (h *Handlers) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.reconciler.Reconcile(r.Context(), req.Reference, application.ClientClaim())
	if err != nil {
		rest.WriteError(w, application.NewInternalError(err), h.logger)
		return
	}

	if result.Settled() {
		rest.RespondData(w, http.StatusOK, toVerifyResponse(result))
		return
	}
	rest.WriteErrorCode(w, verifyStatus(result.Outcome), string(result.Outcome), result.Message)
}

func verifyStatus(outcome application.Outcome) int {
	switch outcome {
	case application.OutcomeVerificationFailed,
		application.OutcomeUnknownReference,
		application.OutcomeMalformedPayload:
		return http.StatusBadRequest
	case application.OutcomeRecordNotFound:
		return http.StatusNotFound
	case application.OutcomeInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HandleGetPayment returns the ledger view of a reference
// @Summary      Get a payment
// @Tags         payments
// @Produce      json
// @Param        reference  path      string  true  "Gateway reference"
// @Success      200        {object}  rest.APIResponse{data=PaymentResponse}
// @Failure      404        {object}  rest.ErrorResponse  "Not found"
// @Router       /api/v1/payments/{reference} [get]
func (h *Handlers) HandleGetPayment(w http.ResponseWriter, r *http.Request) {
	view, err := h.query.FindByReference(r.Context(), r.PathValue("reference"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.RespondData(w, http.StatusOK, toPaymentResponse(view))
}

// decode reads a JSON body into dst and validates it, writing a 400 on
// failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		rest.WriteError(w, application.NewFieldError(application.ErrCodeInvalidInput, "body", "request body is not valid JSON: "+err.Error()), h.logger)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		rest.WriteError(w, application.NewFieldError(application.ErrCodeInvalidInput, "body", err.Error()), h.logger)
		return false
	}
	return true
}
