package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"hotelbook/internal/events"
)

var (
	once sync.Once

	reservationEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotelbook",
			Name:      "reservation_events_total",
			Help:      "Count of reservation lifecycle transitions by hotel and event.",
		},
		[]string{"hotel", "event"},
	)

	refunds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotelbook",
			Name:      "cancellation_refunds_total",
			Help:      "Count of cancellations by whether the customer was refunded.",
		},
		[]string{"hotel", "refunded"},
	)

	billed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotelbook",
			Name:      "billed_amount_total",
			Help:      "Sum of totals billed at checkout and on charged cancellations.",
		},
		[]string{"hotel"},
	)

	capacityRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotelbook",
			Name:      "capacity_rejections_total",
			Help:      "Count of reservations rejected for lack of rooms.",
		},
		[]string{"hotel"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotelbook",
			Name:      "http_requests_total",
			Help:      "Count of API requests by route and status code.",
		},
		[]string{"route", "code"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservationEvents, refunds, billed, capacityRejections, httpRequests)
	})
}

func IncHTTP(route string, code int) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func IncCapacityRejection(hotel string) {
	capacityRejections.WithLabelValues(hotel).Inc()
}

// Subscriber is the part of the event bus the metrics listen on.
type Subscriber interface {
	SubscribeAll(handler events.EventHandler, eventTypes ...string)
}

// Attach counts every engine event published on bus.
func Attach(bus Subscriber) {
	bus.SubscribeAll(observe,
		events.EventReservationCreated,
		events.EventReservationCancelled,
		events.EventReservationNoShow,
		events.EventReservationRemoved,
		events.EventReservationDiscounted,
		events.EventStayCheckedIn,
		events.EventStayCheckedOut,
		events.EventStayRemoved,
	)
}

func observe(e events.Event) error {
	var p events.ReservationPayload
	if err := events.Decode(e, &p); err != nil {
		return err
	}

	reservationEvents.WithLabelValues(p.Hotel, e.Type).Inc()

	switch e.Type {
	case events.EventReservationCancelled:
		refunds.WithLabelValues(p.Hotel, strconv.FormatBool(p.Refunded)).Inc()
		if !p.Refunded {
			billed.WithLabelValues(p.Hotel).Add(p.AmountDue)
		}
	case events.EventReservationNoShow, events.EventStayCheckedOut:
		billed.WithLabelValues(p.Hotel).Add(p.AmountDue)
	}
	return nil
}
