package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event types published by the reservation engine.
const (
	EventReservationCreated    = "reservation.created"
	EventReservationCancelled  = "reservation.cancelled"
	EventReservationNoShow     = "reservation.no_show"
	EventReservationRemoved    = "reservation.removed"
	EventReservationDiscounted = "reservation.discounted"
	EventStayCheckedIn         = "stay.checked_in"
	EventStayCheckedOut        = "stay.checked_out"
	EventStayRemoved           = "stay.removed"
)

// Event represents a lightweight domain event.
type Event struct {
	ID        string
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// ReservationPayload is the JSON body of every engine event.
type ReservationPayload struct {
	Hotel       string  `json:"hotel"`
	Number      int64   `json:"number"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	CheckinDate string  `json:"checkin_date"`
	Nights      int     `json:"nights"`
	Rooms       int     `json:"rooms"`
	AmountDue   float64 `json:"amount_due"`
	Refunded    bool    `json:"refunded,omitempty"`
}

// EventHandler reacts to an event.
type EventHandler func(event Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

// NewEventBus constructs an empty bus.
func NewEventBus(logger *zerolog.Logger) *EventBus {
	l := logger.With().Str("component", "events").Logger()
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: &l}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers one handler for several event types.
func (b *EventBus) SubscribeAll(handler EventHandler, eventTypes ...string) {
	for _, t := range eventTypes {
		b.Subscribe(t, handler)
	}
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil {
			b.logger.Warn().Err(err).Str("event", event.Type).Str("event_id", event.ID).Msg("event handler failed")
		}
	}
}

// PublishJSON marshals payload and publishes it under eventType.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	b.Publish(Event{Type: eventType, Payload: data})
	return nil
}

// Decode unmarshals the payload of an event into v.
func Decode(event Event, v interface{}) error {
	return json.Unmarshal(event.Payload, v)
}
