package models

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/core"
)

type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// TicketType is a priced admission class defined per event.
type TicketType struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type Event struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Date        time.Time        `json:"date"`
	Location    Location         `json:"location"`
	Capacity    int              `json:"capacity"`
	Image       string           `json:"image,omitempty"`
	Images      []string         `json:"images,omitempty"`
	TicketTypes []TicketType     `json:"ticket_types"`
	TypeConfig  *EventTypeConfig `json:"type_config,omitempty"`
}

// TicketTypeByID returns the priced admission class with the given id, or nil.
func (e *Event) TicketTypeByID(id string) *TicketType {
	for i := range e.TicketTypes {
		if e.TicketTypes[i].ID == id {
			return &e.TicketTypes[i]
		}
	}
	return nil
}

// AdmissionCapacity resolves how many admissions the event can issue.
// Variants that carry their own capacity win over the event-level field.
func (e *Event) AdmissionCapacity() int {
	if e.TypeConfig != nil {
		if c, ok := e.TypeConfig.AdmissionCapacity(); ok {
			return c
		}
	}
	return e.Capacity
}

// EventFromRecord maps an events record to the domain model.
func EventFromRecord(record *core.Record) (*Event, error) {
	event := &Event{
		ID:          record.Id,
		Name:        record.GetString("name"),
		Description: record.GetString("description"),
		Date:        record.GetDateTime("date").Time(),
		Capacity:    record.GetInt("capacity"),
		Image:       record.GetString("image"),
	}

	if err := record.UnmarshalJSONField("location", &event.Location); err != nil {
		return nil, fmt.Errorf("event %s: decode location: %w", record.Id, err)
	}
	if record.GetString("images") != "" {
		if err := record.UnmarshalJSONField("images", &event.Images); err != nil {
			return nil, fmt.Errorf("event %s: decode images: %w", record.Id, err)
		}
	}
	if err := record.UnmarshalJSONField("ticket_types", &event.TicketTypes); err != nil {
		return nil, fmt.Errorf("event %s: decode ticket types: %w", record.Id, err)
	}
	if record.GetString("type_config") != "" {
		cfg := &EventTypeConfig{}
		if err := record.UnmarshalJSONField("type_config", cfg); err != nil {
			return nil, fmt.Errorf("event %s: decode type config: %w", record.Id, err)
		}
		event.TypeConfig = cfg
	}

	return event, nil
}
