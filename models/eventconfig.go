package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventConfigType discriminates how an event structures its admissions.
type EventConfigType string

const (
	ConfigFixedDuration    EventConfigType = "fixed-duration"
	ConfigMultiDay         EventConfigType = "multi-day"
	ConfigSessions         EventConfigType = "sessions"
	ConfigNumberedSeats    EventConfigType = "numbered-seats"
	ConfigGeneralAdmission EventConfigType = "general-admission"
	ConfigDayAccess        EventConfigType = "day-access"
	ConfigFullAccess       EventConfigType = "full-access"
)

var ErrLastScheduleEntry = errors.New("event config: cannot remove the last entry")

type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type MultiDaySchedule struct {
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Days      []string `json:"days"`
}

type EventSession struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
}

type SeatPlan struct {
	Rows        int        `json:"rows"`
	SeatsPerRow int        `json:"seatsPerRow"`
	SeatMap     [][]string `json:"seatMap"`
}

type GeneralAdmissionPlan struct {
	Capacity int `json:"capacity"`
}

type AccessDay struct {
	Date     string `json:"date"`
	Name     string `json:"name"`
	Capacity *int   `json:"capacity,omitempty"`
}

// EventTypeConfig is a tagged union: exactly one variant is populated,
// selected by Type. Switching variants discards the other variant's fields.
type EventTypeConfig struct {
	Type             EventConfigType
	FixedDuration    *DateRange
	MultiDay         *MultiDaySchedule
	Sessions         []EventSession
	NumberedSeats    *SeatPlan
	GeneralAdmission *GeneralAdmissionPlan
	DayAccess        []AccessDay
	FullAccess       *DateRange
}

// eventConfigWire is the flat persisted shape: one object with a "type"
// discriminator next to the active variant's fields.
type eventConfigWire struct {
	Type        EventConfigType `json:"type"`
	StartDate   string          `json:"startDate,omitempty"`
	EndDate     string          `json:"endDate,omitempty"`
	Days        json.RawMessage `json:"days,omitempty"`
	Sessions    []EventSession  `json:"sessions,omitempty"`
	Rows        int             `json:"rows,omitempty"`
	SeatsPerRow int             `json:"seatsPerRow,omitempty"`
	SeatMap     [][]string      `json:"seatMap,omitempty"`
	Capacity    int             `json:"capacity,omitempty"`
}

func (c EventTypeConfig) MarshalJSON() ([]byte, error) {
	wire := eventConfigWire{Type: c.Type}

	switch c.Type {
	case ConfigFixedDuration:
		if c.FixedDuration != nil {
			wire.StartDate = c.FixedDuration.StartDate
			wire.EndDate = c.FixedDuration.EndDate
		}
	case ConfigMultiDay:
		if c.MultiDay != nil {
			wire.StartDate = c.MultiDay.StartDate
			wire.EndDate = c.MultiDay.EndDate
			days, err := json.Marshal(c.MultiDay.Days)
			if err != nil {
				return nil, err
			}
			wire.Days = days
		}
	case ConfigSessions:
		wire.Sessions = c.Sessions
	case ConfigNumberedSeats:
		if c.NumberedSeats != nil {
			wire.Rows = c.NumberedSeats.Rows
			wire.SeatsPerRow = c.NumberedSeats.SeatsPerRow
			wire.SeatMap = c.NumberedSeats.SeatMap
		}
	case ConfigGeneralAdmission:
		if c.GeneralAdmission != nil {
			wire.Capacity = c.GeneralAdmission.Capacity
		}
	case ConfigDayAccess:
		days, err := json.Marshal(c.DayAccess)
		if err != nil {
			return nil, err
		}
		wire.Days = days
	case ConfigFullAccess:
		if c.FullAccess != nil {
			wire.StartDate = c.FullAccess.StartDate
			wire.EndDate = c.FullAccess.EndDate
		}
	default:
		return nil, fmt.Errorf("event config: unknown type %q", c.Type)
	}

	return json.Marshal(wire)
}

func (c *EventTypeConfig) UnmarshalJSON(data []byte) error {
	var wire eventConfigWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*c = EventTypeConfig{Type: wire.Type}

	switch wire.Type {
	case ConfigFixedDuration:
		c.FixedDuration = &DateRange{StartDate: wire.StartDate, EndDate: wire.EndDate}
	case ConfigMultiDay:
		schedule := &MultiDaySchedule{StartDate: wire.StartDate, EndDate: wire.EndDate}
		if len(wire.Days) > 0 {
			if err := json.Unmarshal(wire.Days, &schedule.Days); err != nil {
				return fmt.Errorf("event config: decode multi-day days: %w", err)
			}
		}
		c.MultiDay = schedule
	case ConfigSessions:
		c.Sessions = wire.Sessions
	case ConfigNumberedSeats:
		c.NumberedSeats = &SeatPlan{
			Rows:        wire.Rows,
			SeatsPerRow: wire.SeatsPerRow,
			SeatMap:     wire.SeatMap,
		}
	case ConfigGeneralAdmission:
		c.GeneralAdmission = &GeneralAdmissionPlan{Capacity: wire.Capacity}
	case ConfigDayAccess:
		if len(wire.Days) > 0 {
			if err := json.Unmarshal(wire.Days, &c.DayAccess); err != nil {
				return fmt.Errorf("event config: decode day-access days: %w", err)
			}
		}
	case ConfigFullAccess:
		c.FullAccess = &DateRange{StartDate: wire.StartDate, EndDate: wire.EndDate}
	default:
		return fmt.Errorf("event config: unknown type %q", wire.Type)
	}

	return nil
}

// Normalize recomputes the derived parts of the active variant: the multi-day
// day list and the numbered-seats seat map. The seat map is replaced in full,
// and only when the dimensions no longer match the flattened seat count, so
// manual seat label edits survive until a dimension change.
func (c *EventTypeConfig) Normalize() {
	switch c.Type {
	case ConfigMultiDay:
		if c.MultiDay != nil {
			c.MultiDay.Days = DeriveDays(c.MultiDay.StartDate, c.MultiDay.EndDate)
		}
	case ConfigNumberedSeats:
		if plan := c.NumberedSeats; plan != nil && plan.Rows > 0 && plan.SeatsPerRow > 0 {
			current := 0
			for _, row := range plan.SeatMap {
				current += len(row)
			}
			if current != plan.Rows*plan.SeatsPerRow {
				plan.SeatMap = GenerateSeatMap(plan.Rows, plan.SeatsPerRow)
			}
		}
	}
}

// Validate checks the active variant for a shape the allocation engine can
// consume. The switch is exhaustive so a new variant cannot slip through
// unvalidated.
func (c *EventTypeConfig) Validate() error {
	switch c.Type {
	case ConfigFixedDuration:
		return validateDateRange(c.FixedDuration)
	case ConfigMultiDay:
		if c.MultiDay == nil || len(DeriveDays(c.MultiDay.StartDate, c.MultiDay.EndDate)) == 0 {
			return errors.New("event config: multi-day range yields no days")
		}
		return nil
	case ConfigSessions:
		if len(c.Sessions) == 0 {
			return errors.New("event config: sessions list is empty")
		}
		return nil
	case ConfigNumberedSeats:
		if c.NumberedSeats == nil || c.NumberedSeats.Rows < 1 || c.NumberedSeats.SeatsPerRow < 1 {
			return errors.New("event config: numbered-seats dimensions must be at least 1x1")
		}
		return nil
	case ConfigGeneralAdmission:
		if c.GeneralAdmission == nil || c.GeneralAdmission.Capacity < 1 {
			return errors.New("event config: general-admission capacity must be at least 1")
		}
		return nil
	case ConfigDayAccess:
		if len(c.DayAccess) == 0 {
			return errors.New("event config: day-access list is empty")
		}
		return nil
	case ConfigFullAccess:
		return validateDateRange(c.FullAccess)
	default:
		return fmt.Errorf("event config: unknown type %q", c.Type)
	}
}

// AdmissionCapacity reports the capacity the variant itself defines. The
// second return is false for variants governed by the event-level capacity.
func (c *EventTypeConfig) AdmissionCapacity() (int, bool) {
	switch c.Type {
	case ConfigGeneralAdmission:
		if c.GeneralAdmission == nil {
			return 0, false
		}
		return c.GeneralAdmission.Capacity, true
	case ConfigNumberedSeats:
		if c.NumberedSeats == nil {
			return 0, false
		}
		return c.NumberedSeats.Rows * c.NumberedSeats.SeatsPerRow, true
	case ConfigDayAccess:
		total := 0
		for _, day := range c.DayAccess {
			if day.Capacity == nil {
				return 0, false
			}
			total += *day.Capacity
		}
		if len(c.DayAccess) == 0 {
			return 0, false
		}
		return total, true
	case ConfigFixedDuration, ConfigMultiDay, ConfigSessions, ConfigFullAccess:
		return 0, false
	default:
		return 0, false
	}
}

// RemoveSession drops a session at the editing boundary. The last remaining
// session cannot be removed.
func (c *EventTypeConfig) RemoveSession(id string) error {
	if len(c.Sessions) <= 1 {
		return ErrLastScheduleEntry
	}
	for i, session := range c.Sessions {
		if session.ID == id {
			c.Sessions = append(c.Sessions[:i], c.Sessions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("event config: session %q not found", id)
}

// RemoveAccessDay drops a day-access entry by date. The last remaining entry
// cannot be removed.
func (c *EventTypeConfig) RemoveAccessDay(date string) error {
	if len(c.DayAccess) <= 1 {
		return ErrLastScheduleEntry
	}
	for i, day := range c.DayAccess {
		if day.Date == date {
			c.DayAccess = append(c.DayAccess[:i], c.DayAccess[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("event config: access day %q not found", date)
}

// DeriveDays lists every calendar day from start to end inclusive, formatted
// as yyyy-mm-dd. An end before the start yields an empty list; the allocation
// engine treats that as an invalid configuration.
func DeriveDays(startDate, endDate string) []string {
	start, err := parseConfigDate(startDate)
	if err != nil {
		return nil
	}
	end, err := parseConfigDate(endDate)
	if err != nil {
		return nil
	}

	var days []string
	for current := start; !current.After(end); current = current.AddDate(0, 0, 1) {
		days = append(days, current.Format("2006-01-02"))
	}
	return days
}

// GenerateSeatMap builds a rows x seatsPerRow grid of labels: row index maps
// to a letter starting at "A", seat numbers are 1-based.
func GenerateSeatMap(rows, seatsPerRow int) [][]string {
	seatMap := make([][]string, 0, rows)
	for row := 0; row < rows; row++ {
		rowSeats := make([]string, 0, seatsPerRow)
		for seat := 0; seat < seatsPerRow; seat++ {
			rowSeats = append(rowSeats, fmt.Sprintf("%c%d", rune('A'+row), seat+1))
		}
		seatMap = append(seatMap, rowSeats)
	}
	return seatMap
}

func validateDateRange(r *DateRange) error {
	if r == nil || r.StartDate == "" || r.EndDate == "" {
		return errors.New("event config: start and end dates are required")
	}
	start, err := parseConfigDate(r.StartDate)
	if err != nil {
		return fmt.Errorf("event config: invalid start date: %w", err)
	}
	end, err := parseConfigDate(r.EndDate)
	if err != nil {
		return fmt.Errorf("event config: invalid end date: %w", err)
	}
	if end.Before(start) {
		return errors.New("event config: end date is before start date")
	}
	return nil
}

// parseConfigDate accepts the stored date formats: bare dates and the
// datetime-local values the admin forms submit.
func parseConfigDate(value string) (time.Time, error) {
	if len(value) >= 10 {
		if t, err := time.Parse("2006-01-02", value[:10]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date %q", value)
}
