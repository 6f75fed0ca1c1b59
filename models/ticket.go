package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
)

const (
	TicketStatusValid = "valid"
	TicketStatusUsed  = "used"
)

// Ticket is one redeemable admission credential. Status only ever moves from
// valid to used, never back.
type Ticket struct {
	ID           string     `json:"id"`
	OrderID      string     `json:"order_id"`
	EventID      string     `json:"event_id"`
	UserID       string     `json:"user_id"`
	TicketTypeID string     `json:"ticket_type_id"`
	QRData       string     `json:"qr_data"`
	Status       string     `json:"status"`
	UsedAt       *time.Time `json:"used_at,omitempty"`
	Created      time.Time  `json:"created"`
}

// TicketGroup collects a holder's tickets for one event, with the count the
// wallet view renders.
type TicketGroup struct {
	EventID string   `json:"event_id"`
	Count   int      `json:"count"`
	Tickets []Ticket `json:"tickets"`
	Event   *Event   `json:"event,omitempty"`
}

// TicketFromRecord maps a tickets record to the domain model.
func TicketFromRecord(record *core.Record) *Ticket {
	ticket := &Ticket{
		ID:           record.Id,
		OrderID:      record.GetString("order_id"),
		EventID:      record.GetString("event_id"),
		UserID:       record.GetString("user_id"),
		TicketTypeID: record.GetString("ticket_type_id"),
		QRData:       record.GetString("qr_data"),
		Status:       record.GetString("status"),
		Created:      record.GetDateTime("created").Time(),
	}
	if usedAt := record.GetDateTime("used_at"); !usedAt.IsZero() {
		t := usedAt.Time()
		ticket.UsedAt = &t
	}
	return ticket
}
