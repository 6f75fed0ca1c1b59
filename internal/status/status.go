package status

import "errors"

var (
	ErrEventNotFound      = errors.New("event: event not found")
	ErrInvalidEventConfig = errors.New("event: invalid admission configuration")

	ErrEmptySelection    = errors.New("order: ticket selection is empty")
	ErrInvalidQuantity   = errors.New("order: quantity must be at least 1")
	ErrUnknownTicketType = errors.New("order: unknown ticket type")
	ErrSelectionTooLarge = errors.New("order: ticket selection too large")
	ErrCapacityExceeded  = errors.New("order: event capacity exceeded")

	ErrStoreUnavailable = errors.New("store: store unavailable")
)
