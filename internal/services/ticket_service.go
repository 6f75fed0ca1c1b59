package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"admitone/internal/credential"
	"admitone/internal/status"
	"admitone/models"
	"admitone/monitoring"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	pubnub "github.com/pubnub/go/v7"
)

type RedeemOutcome string

const (
	RedeemValidated   RedeemOutcome = "validated"
	RedeemAlreadyUsed RedeemOutcome = "already_used"
	RedeemNotFound    RedeemOutcome = "not_found"
)

// RedeemResult is what a scanning client acts on. AlreadyUsed still carries
// the ticket and event so door staff can see who redeemed it and when.
type RedeemResult struct {
	Outcome RedeemOutcome  `json:"outcome"`
	Message string         `json:"message"`
	Ticket  *models.Ticket `json:"ticket,omitempty"`
	Event   *models.Event  `json:"event,omitempty"`
}

// TicketService owns the valid -> used transition and the holder's wallet
// listing.
type TicketService struct {
	app    core.App
	events *EventService
	codec  *credential.Codec
	pn     *pubnub.PubNub
}

func NewTicketService(app core.App, events *EventService, codec *credential.Codec, pn *pubnub.PubNub) *TicketService {
	return &TicketService{
		app:    app,
		events: events,
		codec:  codec,
		pn:     pn,
	}
}

// Redeem transitions a ticket from valid to used exactly once. The flip is a
// single conditional UPDATE, so concurrent scans of the same ticket serialize
// at the store: one caller wins, the rest observe AlreadyUsed.
func (s *TicketService) Redeem(ctx context.Context, ticketID string) (*RedeemResult, error) {
	now := types.NowDateTime().String()

	res, err := s.app.DB().NewQuery(
		"UPDATE tickets SET status = {:used}, used_at = {:now}, updated = {:now} WHERE id = {:id} AND status = {:valid}",
	).Bind(dbx.Params{
		"used":  models.TicketStatusUsed,
		"valid": models.TicketStatusValid,
		"id":    ticketID,
		"now":   now,
	}).WithContext(ctx).Execute()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrStoreUnavailable, err)
	}
	affected, _ := res.RowsAffected()

	record, err := s.app.FindRecordById("tickets", ticketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			monitoring.TrackValidation("unknown", string(RedeemNotFound))
			return &RedeemResult{
				Outcome: RedeemNotFound,
				Message: "Invalid ticket: not found.",
			}, nil
		}
		return nil, fmt.Errorf("%w: %v", status.ErrStoreUnavailable, err)
	}

	ticket := models.TicketFromRecord(record)

	event, err := s.events.GetEvent(ctx, ticket.EventID)
	if err != nil && !errors.Is(err, status.ErrEventNotFound) {
		return nil, err
	}

	if affected == 0 {
		monitoring.TrackValidation(ticket.EventID, string(RedeemAlreadyUsed))
		return &RedeemResult{
			Outcome: RedeemAlreadyUsed,
			Message: "Ticket already used.",
			Ticket:  ticket,
			Event:   event,
		}, nil
	}

	monitoring.TrackValidation(ticket.EventID, string(RedeemValidated))
	s.publishCheckin(ticket, event)

	slog.Info("ticket redeemed", "ticket_id", ticket.ID, "event_id", ticket.EventID)

	return &RedeemResult{
		Outcome: RedeemValidated,
		Message: "Ticket validated successfully.",
		Ticket:  ticket,
		Event:   event,
	}, nil
}

// RedeemScanned decodes a raw QR payload and redeems the ticket it names.
func (s *TicketService) RedeemScanned(ctx context.Context, qrData string) (*RedeemResult, error) {
	payload, err := s.codec.Decode(qrData)
	if err != nil {
		return nil, err
	}
	return s.Redeem(ctx, payload.TicketID)
}

// ListForUser returns the holder's tickets grouped by event with per-event
// counts, ordered by most recent ticket first.
func (s *TicketService) ListForUser(ctx context.Context, userID string) ([]models.TicketGroup, error) {
	records, err := s.app.FindRecordsByFilter(
		"tickets",
		"user_id = {:userId}",
		"-created",
		0,
		0,
		dbx.Params{"userId": userID},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrStoreUnavailable, err)
	}

	tickets := make([]models.Ticket, 0, len(records))
	for _, record := range records {
		tickets = append(tickets, *models.TicketFromRecord(record))
	}
	groups := groupByEvent(tickets)

	for i := range groups {
		event, err := s.events.GetEvent(ctx, groups[i].EventID)
		if err != nil {
			if errors.Is(err, status.ErrEventNotFound) {
				continue
			}
			return nil, err
		}
		groups[i].Event = event
	}

	return groups, nil
}

// groupByEvent buckets tickets per event, preserving the order events first
// appear in the input.
func groupByEvent(tickets []models.Ticket) []models.TicketGroup {
	byEvent := map[string]int{}
	groups := []models.TicketGroup{}
	for _, ticket := range tickets {
		idx, ok := byEvent[ticket.EventID]
		if !ok {
			idx = len(groups)
			byEvent[ticket.EventID] = idx
			groups = append(groups, models.TicketGroup{EventID: ticket.EventID})
		}
		groups[idx].Count++
		groups[idx].Tickets = append(groups[idx].Tickets, ticket)
	}
	return groups
}

// publishCheckin pushes the redemption to the event's door dashboard channel.
// Best effort: a realtime outage must not fail the scan.
func (s *TicketService) publishCheckin(ticket *models.Ticket, event *models.Event) {
	if s.pn == nil {
		return
	}

	message := map[string]any{
		"ticket_id":      ticket.ID,
		"event_id":       ticket.EventID,
		"user_id":        ticket.UserID,
		"ticket_type_id": ticket.TicketTypeID,
	}
	if event != nil {
		message["event_name"] = event.Name
	}
	if ticket.UsedAt != nil {
		message["used_at"] = ticket.UsedAt
	}

	go func() {
		_, _, err := s.pn.Publish().
			Channel("checkin." + ticket.EventID).
			Message(message).
			Execute()
		if err != nil {
			slog.Error("failed to publish checkin", "ticket_id", ticket.ID, "error", err)
		}
	}()
}
