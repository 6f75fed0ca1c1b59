package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"admitone/internal/credential"
	"admitone/internal/status"
	"admitone/models"
	"admitone/monitoring"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// OrderService turns a purchase request into one order plus its tickets.
type OrderService struct {
	app    core.App
	events *EventService
	codec  *credential.Codec
}

func NewOrderService(app core.App, events *EventService, codec *credential.Codec) *OrderService {
	return &OrderService{
		app:    app,
		events: events,
		codec:  codec,
	}
}

type allocationLine struct {
	ticketType models.TicketType
	quantity   int
}

type allocationPlan struct {
	lines       []allocationLine
	ticketCount int
	total       decimal.Decimal
}

// planAllocation validates the selections against the event definition and
// prices them. It performs no I/O.
func planAllocation(event *models.Event, selections []models.TicketSelection) (*allocationPlan, error) {
	if len(selections) == 0 {
		return nil, status.ErrEmptySelection
	}

	plan := &allocationPlan{}
	for _, selection := range selections {
		if selection.Quantity < 1 {
			return nil, fmt.Errorf("%w: %q requested %d",
				status.ErrInvalidQuantity, selection.TicketTypeID, selection.Quantity)
		}

		ticketType := event.TicketTypeByID(selection.TicketTypeID)
		if ticketType == nil {
			return nil, fmt.Errorf("%w: %q", status.ErrUnknownTicketType, selection.TicketTypeID)
		}

		plan.lines = append(plan.lines, allocationLine{
			ticketType: *ticketType,
			quantity:   selection.Quantity,
		})
		plan.ticketCount += selection.Quantity
		plan.total = plan.total.Add(
			decimal.NewFromFloat(ticketType.Price).Mul(decimal.NewFromInt(int64(selection.Quantity))))
	}

	if plan.ticketCount > models.MaxTicketsPerOrder {
		return nil, fmt.Errorf("%w: %d requested, limit %d",
			status.ErrSelectionTooLarge, plan.ticketCount, models.MaxTicketsPerOrder)
	}

	return plan, nil
}

// PlaceOrder allocates tickets for the holder and records the order. The
// whole write set runs in one store transaction: either the order and every
// ticket exist with consistent cross-references, or nothing was written.
func (s *OrderService) PlaceOrder(ctx context.Context, userID, eventID string, selections []models.TicketSelection) (*models.PlacedOrder, error) {
	start := time.Now()

	placed, err := s.placeOrder(ctx, userID, eventID, selections)
	if err != nil {
		monitoring.TrackAllocation(eventID, "error")
		monitoring.ObserveAllocation("error", time.Since(start))
		return nil, err
	}

	monitoring.TrackAllocation(eventID, "ok")
	monitoring.TrackTicketsIssued(eventID, len(placed.Tickets))
	monitoring.ObserveAllocation("ok", time.Since(start))

	slog.Info("order placed",
		"order_id", placed.Order.ID,
		"event_id", eventID,
		"user_id", userID,
		"tickets", len(placed.Tickets),
		"total", placed.Order.TotalAmount,
	)

	return placed, nil
}

func (s *OrderService) placeOrder(ctx context.Context, userID, eventID string, selections []models.TicketSelection) (*models.PlacedOrder, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if cfg := event.TypeConfig; cfg != nil {
		cfg.Normalize()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", status.ErrInvalidEventConfig, err)
		}
	}

	plan, err := planAllocation(event, selections)
	if err != nil {
		return nil, err
	}

	capacity := event.AdmissionCapacity()

	placed := &models.PlacedOrder{}

	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		ordersCollection, err := txApp.FindCollectionByNameOrId("orders")
		if err != nil {
			return err
		}
		ticketsCollection, err := txApp.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}

		// The count has to happen on the transaction's connection: checked
		// outside, two concurrent orders could both observe the same issued
		// count and oversell the last seats.
		if capacity > 0 {
			issued, err := txApp.CountRecords("tickets", dbx.HashExp{"event_id": event.ID})
			if err != nil {
				return err
			}
			if int(issued)+plan.ticketCount > capacity {
				return fmt.Errorf("%w: %d issued, %d requested, capacity %d",
					status.ErrCapacityExceeded, issued, plan.ticketCount, capacity)
			}
		}

		// The order shell goes first so every ticket can carry its
		// back-reference from the moment it exists.
		orderRecord := core.NewRecord(ordersCollection)
		orderRecord.Set("user_id", userID)
		orderRecord.Set("event_id", event.ID)
		orderRecord.Set("total_amount", plan.total.InexactFloat64())
		if err := txApp.Save(orderRecord); err != nil {
			return err
		}

		ticketIDs := make([]string, 0, plan.ticketCount)
		for _, line := range plan.lines {
			for i := 0; i < line.quantity; i++ {
				ticketID, err := credential.NewID()
				if err != nil {
					return err
				}
				qrData, err := s.codec.Encode(ticketID, event.ID, userID)
				if err != nil {
					return err
				}

				ticketRecord := core.NewRecord(ticketsCollection)
				ticketRecord.Id = ticketID
				ticketRecord.Set("order_id", orderRecord.Id)
				ticketRecord.Set("event_id", event.ID)
				ticketRecord.Set("user_id", userID)
				ticketRecord.Set("ticket_type_id", line.ticketType.ID)
				ticketRecord.Set("qr_data", qrData)
				ticketRecord.Set("status", models.TicketStatusValid)
				if err := txApp.Save(ticketRecord); err != nil {
					return err
				}

				ticketIDs = append(ticketIDs, ticketID)
				placed.Tickets = append(placed.Tickets, *models.TicketFromRecord(ticketRecord))
			}
		}

		orderRecord.Set("tickets", ticketIDs)
		if err := txApp.Save(orderRecord); err != nil {
			return err
		}

		placed.Order = *models.OrderFromRecord(orderRecord)
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, status.ErrCapacityExceeded) {
			return nil, txErr
		}
		return nil, fmt.Errorf("%w: %v", status.ErrStoreUnavailable, txErr)
	}

	return placed, nil
}
