package handlers

import (
	"net/http"

	"admitone/internal/services"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type TicketHandler struct {
	app     *pocketbase.PocketBase
	tickets *services.TicketService
}

func NewTicketHandler(app *pocketbase.PocketBase, tickets *services.TicketService) *TicketHandler {
	return &TicketHandler{
		app:     app,
		tickets: tickets,
	}
}

// Validate - Redeem a ticket by identifier at the point of entry
func (h *TicketHandler) Validate(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Authentication required", nil)
	}

	ticketID := e.Request.PathValue("ticketId")
	if ticketID == "" {
		return apis.NewBadRequestError("ticketId is required", nil)
	}

	result, err := h.tickets.Redeem(e.Request.Context(), ticketID)
	if err != nil {
		return apiError(err)
	}

	return writeRedeemResult(e, result)
}

// ValidateScanned - Redeem a ticket from a raw scanned QR payload
func (h *TicketHandler) ValidateScanned(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Authentication required", nil)
	}

	var req struct {
		QRData string `json:"qr_data"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.QRData == "" {
		return apis.NewBadRequestError("qr_data is required", nil)
	}

	result, err := h.tickets.RedeemScanned(e.Request.Context(), req.QRData)
	if err != nil {
		return apiError(err)
	}

	return writeRedeemResult(e, result)
}

// ListMyTickets - The holder's tickets grouped by event
func (h *TicketHandler) ListMyTickets(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Authentication required", nil)
	}

	groups, err := h.tickets.ListForUser(e.Request.Context(), e.Auth.Id)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"success": true,
		"events":  groups,
	})
}

// Door staff deny entry on not_found but investigate already_used, so the two
// rejections keep distinct status codes.
func writeRedeemResult(e *core.RequestEvent, result *services.RedeemResult) error {
	statusCode := http.StatusOK
	switch result.Outcome {
	case services.RedeemNotFound:
		statusCode = http.StatusNotFound
	case services.RedeemAlreadyUsed:
		statusCode = http.StatusConflict
	}

	return e.JSON(statusCode, map[string]any{
		"success": result.Outcome == services.RedeemValidated,
		"outcome": result.Outcome,
		"message": result.Message,
		"ticket":  result.Ticket,
		"event":   result.Event,
	})
}
