package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"admitone/internal/status"
	"admitone/models"
	"admitone/utils"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// EventService is the read side for event definitions. Events are read-only
// to this service, so the Redis cache needs no invalidation beyond its TTL.
// The cache hop sits behind a circuit breaker: when Redis is down, gate scans
// degrade to direct store reads instead of failing.
type EventService struct {
	app     core.App
	Redis   *redis.Client
	breaker *utils.CircuitBreaker
	ttl     time.Duration
}

func NewEventService(app core.App, redisClient *redis.Client, ttl time.Duration) *EventService {
	return &EventService{
		app:     app,
		Redis:   redisClient,
		breaker: utils.NewCircuitBreaker("event-cache"),
		ttl:     ttl,
	}
}

func (s *EventService) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	if event := s.fromCache(ctx, eventID); event != nil {
		return event, nil
	}

	record, err := s.app.FindRecordById("events", eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrEventNotFound
		}
		return nil, fmt.Errorf("%w: %v", status.ErrStoreUnavailable, err)
	}

	event, err := models.EventFromRecord(record)
	if err != nil {
		return nil, err
	}

	s.storeInCache(ctx, event)

	return event, nil
}

func (s *EventService) fromCache(ctx context.Context, eventID string) *models.Event {
	if s.Redis == nil {
		return nil
	}

	result, err := s.breaker.Execute(ctx, func() (any, error) {
		val, err := s.Redis.Get(ctx, eventCacheKey(eventID)).Result()
		if errors.Is(err, redis.Nil) {
			// A miss is a normal outcome, not a breaker failure.
			return "", nil
		}
		return val, err
	})
	if err != nil {
		return nil
	}

	raw, _ := result.(string)
	if raw == "" {
		return nil
	}

	event := &models.Event{}
	if err := json.Unmarshal([]byte(raw), event); err != nil {
		slog.Warn("discarding corrupt cached event", "event_id", eventID, "error", err)
		return nil
	}
	return event
}

func (s *EventService) storeInCache(ctx context.Context, event *models.Event) {
	if s.Redis == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	if _, err := s.breaker.Execute(ctx, func() (any, error) {
		return nil, s.Redis.Set(ctx, eventCacheKey(event.ID), data, s.ttl).Err()
	}); err != nil && !errors.Is(err, utils.ErrBreakerOpen) {
		slog.Warn("failed to cache event", "event_id", event.ID, "error", err)
	}
}

func eventCacheKey(eventID string) string {
	return fmt.Sprintf("event:cache:%s", eventID)
}
