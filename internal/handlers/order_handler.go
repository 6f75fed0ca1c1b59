package handlers

import (
	"net/http"

	"admitone/internal/services"
	"admitone/models"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type OrderHandler struct {
	app    *pocketbase.PocketBase
	orders *services.OrderService
}

func NewOrderHandler(app *pocketbase.PocketBase, orders *services.OrderService) *OrderHandler {
	return &OrderHandler{
		app:    app,
		orders: orders,
	}
}

// PlaceOrder - Allocate tickets for the authenticated holder
func (h *OrderHandler) PlaceOrder(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Authentication required", nil)
	}

	var req struct {
		EventID    string                   `json:"event_id"`
		Selections []models.TicketSelection `json:"selections"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.EventID == "" {
		return apis.NewBadRequestError("event_id is required", nil)
	}

	placed, err := h.orders.PlaceOrder(e.Request.Context(), e.Auth.Id, req.EventID, req.Selections)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Order placed successfully.",
		"order":   placed.Order,
		"tickets": placed.Tickets,
	})
}
