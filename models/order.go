package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// MaxTicketsPerOrder caps how many tickets a single order may carry. The
// orders schema enforces the same limit on its tickets field.
const MaxTicketsPerOrder = 500

// TicketSelection is one purchase line: a ticket type and how many of it.
type TicketSelection struct {
	TicketTypeID string `json:"ticket_type_id"`
	Quantity     int    `json:"quantity"`
}

// Order is the durable record of one purchase. It is immutable once created;
// membership and total are never updated afterwards.
type Order struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	EventID     string    `json:"event_id"`
	Tickets     []string  `json:"tickets"`
	TotalAmount float64   `json:"total_amount"`
	Created     time.Time `json:"created"`
}

// PlacedOrder is an order with its ticket records resolved, as returned to
// the purchaser.
type PlacedOrder struct {
	Order   Order    `json:"order"`
	Tickets []Ticket `json:"tickets"`
}

// OrderFromRecord maps an orders record to the domain model.
func OrderFromRecord(record *core.Record) *Order {
	return &Order{
		ID:          record.Id,
		UserID:      record.GetString("user_id"),
		EventID:     record.GetString("event_id"),
		Tickets:     record.GetStringSlice("tickets"),
		TotalAmount: record.GetFloat("total_amount"),
		Created:     record.GetDateTime("created").Time(),
	}
}
