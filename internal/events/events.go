package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingCreated  = "booking_created"
	EventBookingApproved = "booking_approved"
	EventBookingRejected = "booking_rejected"
	EventCommentAdded    = "comment_added"
	EventItemCreated     = "item_created"
	EventItemUpdated     = "item_updated"
)

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID int64  `json:"booking_id"`
	ItemID    int64  `json:"item_id"`
	ItemName  string `json:"item_name"`
	OwnerID   int64  `json:"owner_id"`
	BookerID  int64  `json:"booker_id"`
	Status    string `json:"status"`
}

// ItemEventPayload describes an item mutation for event consumers.
type ItemEventPayload struct {
	ItemID   int64  `json:"item_id"`
	ItemName string `json:"item_name"`
	OwnerID  int64  `json:"owner_id"`
}

// CommentEventPayload describes a published comment for event consumers.
type CommentEventPayload struct {
	CommentID int64 `json:"comment_id"`
	ItemID    int64 `json:"item_id"`
	OwnerID   int64 `json:"owner_id"`
	AuthorID  int64 `json:"author_id"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
