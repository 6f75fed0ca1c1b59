package handlers

import (
	"fmt"

	"admitone/models"
	"admitone/utils"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// RegisterEventHooks normalizes event records on their way into the store:
// ticket types get ids when the form omitted them, and the admission config
// has its derived fields recomputed and its shape checked.
func RegisterEventHooks(app core.App) {
	hook := func(e *core.RecordRequestEvent) error {
		if err := normalizeEventRecord(e.Record); err != nil {
			return err
		}
		return e.Next()
	}

	app.OnRecordCreateRequest("events").BindFunc(hook)
	app.OnRecordUpdateRequest("events").BindFunc(hook)
}

func normalizeEventRecord(record *core.Record) error {
	if record.GetString("ticket_types") != "" {
		var ticketTypes []models.TicketType
		if err := record.UnmarshalJSONField("ticket_types", &ticketTypes); err != nil {
			return apis.NewBadRequestError("Invalid ticket types", err)
		}
		normalized, err := normalizeTicketTypes(ticketTypes)
		if err != nil {
			return apis.NewBadRequestError(err.Error(), nil)
		}
		record.Set("ticket_types", normalized)
	}

	if record.GetString("type_config") != "" {
		cfg := &models.EventTypeConfig{}
		if err := record.UnmarshalJSONField("type_config", cfg); err != nil {
			return apis.NewBadRequestError("Invalid event configuration", err)
		}
		cfg.Normalize()
		if err := cfg.Validate(); err != nil {
			return apis.NewBadRequestError("Invalid event configuration", err)
		}
		record.Set("type_config", cfg)
	}

	return nil
}

func normalizeTicketTypes(ticketTypes []models.TicketType) ([]models.TicketType, error) {
	seen := map[string]bool{}
	for i := range ticketTypes {
		if ticketTypes[i].Name == "" {
			return nil, fmt.Errorf("ticket type %d has no name", i+1)
		}
		if ticketTypes[i].Price < 0 {
			return nil, fmt.Errorf("ticket type %q has a negative price", ticketTypes[i].Name)
		}
		if ticketTypes[i].ID == "" {
			code, err := utils.GenerateCode(8)
			if err != nil {
				return nil, err
			}
			ticketTypes[i].ID = code
		}
		if seen[ticketTypes[i].ID] {
			return nil, fmt.Errorf("duplicate ticket type id %q", ticketTypes[i].ID)
		}
		seen[ticketTypes[i].ID] = true
	}
	return ticketTypes, nil
}
