package handlers

import (
	"net/http"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/application/services"
	"github.com/DanielPopoola/jmw-payments/internal/interfaces/rest"
	"github.com/google/uuid"
)

// HandleSubmitEntry adds an order entry under a bulk-order link
// @Summary      Submit an order entry
// @Description  Allocates the next serial number for the link. With a coupon the entry is paid immediately; otherwise the response carries the gateway payment details.
// @Tags         entries
// @Accept       json
// @Produce      json
// @Param        linkID   path      string              true  "Bulk order link ID"  format(uuid)
// @Param        request  body      SubmitEntryRequest  true  "Entry details"
// @Success      201      {object}  rest.APIResponse{data=SubmitEntryResponse}
// @Failure      400      {object}  rest.ErrorResponse  "Invalid input or coupon"
// @Failure      404      {object}  rest.ErrorResponse  "Link not found"
// @Failure      410      {object}  rest.ErrorResponse  "Payment deadline passed"
// @Router       /api/v1/links/{linkID}/entries [post]
func (h *Handlers) HandleSubmitEntry(w http.ResponseWriter, r *http.Request) {
	linkID, err := uuid.Parse(r.PathValue("linkID"))
	if err != nil {
		rest.WriteError(w, application.NewFieldError(application.ErrCodeInvalidInput, "linkID", "link id must be a UUID"), h.logger)
		return
	}

	var req SubmitEntryRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.entries.SubmitEntry(r.Context(), services.SubmitEntryCommand{
		LinkID:     linkID,
		Email:      string(req.Email),
		FullName:   req.FullName,
		Size:       req.Size,
		CustomName: req.CustomName,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	if result.Outcome == services.EntryCreated {
		rest.RespondData(w, http.StatusCreated, toEntryResponse(result))
		return
	}
	rest.WriteErrorCode(w, entryStatus(result.Outcome), string(result.Outcome), result.Message)
}

func entryStatus(outcome services.EntryOutcome) int {
	switch outcome {
	case services.EntryLinkNotFound:
		return http.StatusNotFound
	case services.EntryLinkExpired:
		return http.StatusGone
	default:
		return http.StatusBadRequest
	}
}
