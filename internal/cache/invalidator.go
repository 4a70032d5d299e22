package cache

import (
	"context"
	"encoding/json"

	"lendshare/internal/domain"
	"lendshare/internal/events"

	"github.com/rs/zerolog"
)

// Invalidator drops an owner's cached item views whenever a domain event
// touches one of their items.
type Invalidator struct {
	cache  domain.ViewCache
	logger *zerolog.Logger
}

func NewInvalidator(cache domain.ViewCache, logger *zerolog.Logger) *Invalidator {
	return &Invalidator{cache: cache, logger: logger}
}

// Register subscribes the invalidator to every event carrying an owner id.
func (i *Invalidator) Register(bus *events.EventBus) {
	for _, eventType := range []string{
		events.EventItemCreated,
		events.EventItemUpdated,
		events.EventBookingCreated,
		events.EventBookingApproved,
		events.EventBookingRejected,
		events.EventCommentAdded,
	} {
		bus.Subscribe(eventType, i.Handle)
	}
}

func (i *Invalidator) Handle(event *events.Event) error {
	var payload struct {
		OwnerID int64 `json:"owner_id"`
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		i.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to decode event payload")
		return err
	}
	if payload.OwnerID == 0 {
		return nil
	}

	if err := i.cache.Invalidate(context.Background(), payload.OwnerID); err != nil {
		i.logger.Warn().Err(err).Int64("owner_id", payload.OwnerID).Msg("failed to invalidate item views")
		return err
	}
	return nil
}
