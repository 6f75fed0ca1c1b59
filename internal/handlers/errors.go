package handlers

import (
	"errors"
	"net/http"

	"admitone/internal/credential"
	"admitone/internal/status"

	"github.com/pocketbase/pocketbase/apis"
)

// apiError maps service errors to HTTP errors without leaking store
// internals into the response body.
func apiError(err error) error {
	switch {
	case errors.Is(err, status.ErrEventNotFound):
		return apis.NewNotFoundError("Event not found", err)
	case errors.Is(err, status.ErrEmptySelection):
		return apis.NewBadRequestError("Select at least one ticket", err)
	case errors.Is(err, status.ErrInvalidQuantity):
		return apis.NewBadRequestError("Ticket quantity must be at least 1", err)
	case errors.Is(err, status.ErrSelectionTooLarge):
		return apis.NewBadRequestError("Too many tickets in one order", err)
	case errors.Is(err, status.ErrUnknownTicketType):
		return apis.NewBadRequestError("Unknown ticket type", err)
	case errors.Is(err, status.ErrInvalidEventConfig):
		return apis.NewBadRequestError("Event is not configured for sales", err)
	case errors.Is(err, status.ErrCapacityExceeded):
		return apis.NewBadRequestError("Not enough tickets left for this event", err)
	case errors.Is(err, credential.ErrMalformedPayload), errors.Is(err, credential.ErrBadSignature):
		return apis.NewBadRequestError("Unreadable ticket code", err)
	case errors.Is(err, status.ErrStoreUnavailable):
		return apis.NewApiError(http.StatusServiceUnavailable, "Service temporarily unavailable", err)
	default:
		return apis.NewBadRequestError("Request failed", err)
	}
}
