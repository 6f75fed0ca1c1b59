package services

import (
	"testing"
	"time"

	"admitone/internal/credential"
	"admitone/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/require"
)

// newStoreApp boots a throwaway PocketBase instance with the events, tickets
// and orders collections, so service tests can exercise real transactions and
// conditional updates against SQLite.
func newStoreApp(t *testing.T) *tests.TestApp {
	t.Helper()

	app, err := tests.NewTestApp(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	events := core.NewBaseCollection("events")
	events.Fields.Add(
		&core.TextField{Name: "name"},
		&core.TextField{Name: "description"},
		&core.DateField{Name: "date"},
		&core.JSONField{Name: "location"},
		&core.NumberField{Name: "capacity"},
		&core.TextField{Name: "image"},
		&core.JSONField{Name: "images"},
		&core.JSONField{Name: "ticket_types"},
		&core.JSONField{Name: "type_config"},
	)
	require.NoError(t, app.Save(events))

	tickets := core.NewBaseCollection("tickets")
	tickets.Fields.Add(
		&core.TextField{Name: "order_id"},
		&core.TextField{Name: "event_id"},
		&core.TextField{Name: "user_id"},
		&core.TextField{Name: "ticket_type_id"},
		&core.TextField{Name: "qr_data"},
		&core.SelectField{Name: "status", Values: []string{models.TicketStatusValid, models.TicketStatusUsed}, MaxSelect: 1},
		&core.DateField{Name: "used_at"},
		&core.AutodateField{Name: "created", OnCreate: true},
		&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
	)
	require.NoError(t, app.Save(tickets))

	orders := core.NewBaseCollection("orders")
	orders.Fields.Add(
		&core.TextField{Name: "user_id"},
		&core.TextField{Name: "event_id"},
		&core.JSONField{Name: "tickets"},
		&core.NumberField{Name: "total_amount"},
		&core.AutodateField{Name: "created", OnCreate: true},
		&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
	)
	require.NoError(t, app.Save(orders))

	return app
}

// seedEvent persists an event definition and returns its id.
func seedEvent(t *testing.T, app core.App, capacity int, ticketTypes []models.TicketType, cfg *models.EventTypeConfig) string {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId("events")
	require.NoError(t, err)

	record := core.NewRecord(collection)
	record.Set("name", "Store Test Concert")
	record.Set("date", time.Now().Add(24*time.Hour))
	record.Set("location", models.Location{Name: "Main Hall"})
	record.Set("capacity", capacity)
	record.Set("ticket_types", ticketTypes)
	if cfg != nil {
		record.Set("type_config", cfg)
	}
	require.NoError(t, app.Save(record))

	return record.Id
}

// seedTicket persists a single ticket record in the given status and returns
// its id.
func seedTicket(t *testing.T, app core.App, eventID, userID, status string) string {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId("tickets")
	require.NoError(t, err)

	ticketID, err := credential.NewID()
	require.NoError(t, err)

	record := core.NewRecord(collection)
	record.Id = ticketID
	record.Set("event_id", eventID)
	record.Set("user_id", userID)
	record.Set("ticket_type_id", "ga")
	record.Set("status", status)
	require.NoError(t, app.Save(record))

	return ticketID
}

func newStoreServices(app core.App, secret string) (*EventService, *OrderService, *TicketService) {
	codec := credential.NewCodec(secret)
	events := NewEventService(app, nil, time.Minute)
	orders := NewOrderService(app, events, codec)
	tickets := NewTicketService(app, events, codec, nil)
	return events, orders, tickets
}
