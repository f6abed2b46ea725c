package events

import (
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBus() *EventBus {
	logger := zerolog.New(io.Discard)
	return NewEventBus(&logger)
}

func TestPublishJSON(t *testing.T) {
	bus := newBus()

	var got []Event
	bus.Subscribe(EventReservationCreated, func(e Event) error {
		got = append(got, e)
		return nil
	})

	err := bus.PublishJSON(EventReservationCreated, ReservationPayload{Hotel: "Harbour", Number: 7})
	require.NoError(t, err)
	require.NoError(t, bus.PublishJSON(EventStayCheckedIn, ReservationPayload{Number: 8}))

	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].CreatedAt.IsZero())

	var payload ReservationPayload
	require.NoError(t, Decode(got[0], &payload))
	assert.Equal(t, "Harbour", payload.Hotel)
	assert.Equal(t, int64(7), payload.Number)
}

func TestPublish_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := newBus()

	calls := 0
	bus.SubscribeAll(func(Event) error {
		calls++
		return errors.New("boom")
	}, EventStayCheckedOut, EventStayRemoved)
	bus.Subscribe(EventStayCheckedOut, func(Event) error {
		calls++
		return nil
	})

	bus.Publish(Event{Type: EventStayCheckedOut})
	bus.Publish(Event{Type: EventStayRemoved})

	assert.Equal(t, 3, calls)
}

func TestPublishJSON_MarshalError(t *testing.T) {
	bus := newBus()
	err := bus.PublishJSON(EventReservationCreated, make(chan int))
	assert.Error(t, err)
}
