package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hotelbook/internal/availability"
	"hotelbook/internal/billing"
	"hotelbook/internal/catalog"
	"hotelbook/internal/config"
	"hotelbook/internal/events"
	"hotelbook/internal/models"
)

// Store persists the per-hotel collections. Writes replace the whole collection.
type Store interface {
	SaveReservations(ctx context.Context, kind models.Collection, hotel string, list []*models.Reservation) error
	SaveStays(ctx context.Context, hotel string, stays []*models.HotelStay) error
	Load(ctx context.Context) (*models.Snapshot, error)
}

// Sequence hands out reservation numbers.
type Sequence interface {
	Next(ctx context.Context) (int64, error)
	Seed(ctx context.Context, n int64) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type Clock func() time.Time

type Options struct {
	Policy             billing.Policy
	CapacityMode       string
	PurgeAfterDays     int
	StayRetentionYears int
	Clock              Clock
}

// DefaultOptions reproduces the chain's standing rules.
func DefaultOptions() Options {
	return Options{
		Policy:             billing.DefaultPolicy(),
		CapacityMode:       config.CapacityTotal,
		PurgeAfterDays:     30,
		StayRetentionYears: 7,
		Clock:              time.Now,
	}
}

// OptionsFromConfig maps the engine section of the config file.
func OptionsFromConfig(cfg config.EngineConfig) Options {
	opts := DefaultOptions()
	opts.CapacityMode = cfg.CapacityMode
	opts.Policy = billing.Policy{
		Deposit:                 cfg.Deposit,
		BreakfastPerPerson:      cfg.BreakfastPerPerson,
		AdvancePurchaseDiscount: cfg.AdvancePurchaseDiscount,
	}
	opts.PurgeAfterDays = cfg.PurgeAfterDays
	opts.StayRetentionYears = cfg.StayRetentionYears
	return opts
}

// hotelState owns the three collections of one hotel. mu guards all of them.
type hotelState struct {
	mu            sync.Mutex
	reservations  []*models.Reservation
	cancellations []*models.Reservation
	stays         []*models.HotelStay
}

// ReservationService is the reservation engine of the chain.
type ReservationService struct {
	catalog *catalog.Catalog
	calc    *availability.Calculator
	store   Store
	seq     Sequence
	bus     EventPublisher
	opts    Options
	hotels  map[string]*hotelState
	logger  *zerolog.Logger
}

func NewReservationService(
	cat *catalog.Catalog,
	store Store,
	seq Sequence,
	bus EventPublisher,
	opts Options,
	logger *zerolog.Logger,
) *ReservationService {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.CapacityMode == "" {
		opts.CapacityMode = config.CapacityTotal
	}

	hotels := make(map[string]*hotelState)
	for _, name := range cat.Hotels() {
		hotels[name] = &hotelState{}
	}

	l := logger.With().Str("component", "reservations").Logger()
	return &ReservationService{
		catalog: cat,
		calc:    availability.NewCalculator(cat),
		store:   store,
		seq:     seq,
		bus:     bus,
		opts:    opts,
		hotels:  hotels,
		logger:  &l,
	}
}

// Policy returns the billing constants the engine charges with.
func (s *ReservationService) Policy() billing.Policy {
	return s.opts.Policy
}

func (s *ReservationService) Catalog() *catalog.Catalog {
	return s.catalog
}

// Load repopulates the collections from the store and continues numbering
// after the highest stored reservation number.
func (s *ReservationService) Load(ctx context.Context) error {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	for name, h := range s.hotels {
		h.mu.Lock()
		h.reservations = s.bindRooms(name, snap.Reservations[name])
		h.cancellations = s.bindRooms(name, snap.Cancellations[name])
		h.stays = snap.Stays[name]
		for _, st := range h.stays {
			s.bindRooms(name, []*models.Reservation{st.Reservation})
		}
		h.mu.Unlock()
	}

	unknown := make(map[string]bool)
	for name := range snap.Reservations {
		unknown[name] = true
	}
	for name := range snap.Cancellations {
		unknown[name] = true
	}
	for name := range snap.Stays {
		unknown[name] = true
	}
	for name := range unknown {
		if _, ok := s.hotels[name]; !ok {
			s.logger.Warn().Str("hotel", name).Msg("stored hotel is not in the catalog, records ignored")
		}
	}

	if err := s.seq.Seed(ctx, snap.MaxNumber()); err != nil {
		return fmt.Errorf("seed sequence: %w", err)
	}

	s.logger.Info().Int64("last_number", snap.MaxNumber()).Int("hotels", len(s.hotels)).Msg("state loaded")
	return nil
}

// bindRooms swaps stored room stubs for the catalog's room of the same type.
func (s *ReservationService) bindRooms(hotel string, list []*models.Reservation) []*models.Reservation {
	for _, r := range list {
		if r == nil {
			continue
		}
		for i := range r.Rooms {
			if r.Rooms[i].Room == nil {
				continue
			}
			room, err := s.catalog.Lookup(hotel, r.Rooms[i].Room.Type)
			if err != nil {
				s.logger.Warn().Str("hotel", hotel).Int64("number", r.Number).
					Str("room_type", r.Rooms[i].Room.Type).Msg("stored room type is not in the catalog")
				continue
			}
			r.Rooms[i].Room = room
		}
	}
	return list
}

func (s *ReservationService) hotel(name string) (*hotelState, error) {
	h, ok := s.hotels[name]
	if !ok {
		return nil, ErrHotelNotFound
	}
	return h, nil
}

func (s *ReservationService) today() time.Time {
	return models.DateOf(s.opts.Clock())
}

func (s *ReservationService) persistReservations(ctx context.Context, hotel string, kind models.Collection, list []*models.Reservation) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveReservations(ctx, kind, hotel, list); err != nil {
		s.logger.Error().Err(err).Str("hotel", hotel).Str("collection", string(kind)).Msg("failed to persist collection")
	}
}

func (s *ReservationService) persistStays(ctx context.Context, hotel string, stays []*models.HotelStay) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveStays(ctx, hotel, stays); err != nil {
		s.logger.Error().Err(err).Str("hotel", hotel).Str("collection", string(models.CollectionStays)).Msg("failed to persist collection")
	}
}

func (s *ReservationService) publish(eventType, hotel string, r *models.Reservation, refunded bool) {
	if s.bus == nil {
		return
	}
	payload := events.ReservationPayload{
		Hotel:       hotel,
		Number:      r.Number,
		Name:        r.Name,
		Type:        string(r.Type),
		CheckinDate: r.CheckinDate.Format(models.DateLayout),
		Nights:      r.Nights,
		Rooms:       r.NumberOfRooms(),
		AmountDue:   r.TotalCost.AmountDue,
		Refunded:    refunded,
	}
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Int64("number", r.Number).Msg("failed to publish event")
	}
}

func indexOf(list []*models.Reservation, number int64) int {
	for i, r := range list {
		if r.Number == number {
			return i
		}
	}
	return -1
}

func stayIndex(stays []*models.HotelStay, number int64) int {
	for i, st := range stays {
		if st.Reservation != nil && st.Reservation.Number == number {
			return i
		}
	}
	return -1
}

func cloneAll(list []*models.Reservation) []*models.Reservation {
	out := make([]*models.Reservation, 0, len(list))
	for _, r := range list {
		out = append(out, r.Clone())
	}
	return out
}
