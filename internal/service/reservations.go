package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotelbook/internal/config"
	"hotelbook/internal/events"
	"hotelbook/internal/models"
)

// RoomRequest asks for one unit of a room type.
type RoomRequest struct {
	Type      string `json:"type"`
	Adults    int    `json:"adults"`
	Children  int    `json:"children"`
	Breakfast bool   `json:"breakfast"`
}

// Draft is a reservation before the engine has accepted it.
type Draft struct {
	Name        string                 `json:"name"`
	Type        models.ReservationType `json:"type"`
	CheckinDate time.Time              `json:"checkin_date"`
	Nights      int                    `json:"nights"`
	People      int                    `json:"people"`
	Rooms       []RoomRequest          `json:"rooms"`
}

// Lookup finds an active reservation by number, or by name and checkin date
// when Number is zero.
type Lookup struct {
	Name   string
	Date   time.Time
	Number int64
}

func (s *ReservationService) validate(hotel string, d Draft) ([]models.RoomBooking, error) {
	inputErr := newInputError()

	if d.Name == "" {
		inputErr.addError("name", "provide a customer name")
	}
	if !d.Type.Valid() {
		inputErr.addError("type", "type must be S or AP")
	}
	if d.CheckinDate.IsZero() {
		inputErr.addError("checkin_date", "provide a checkin date")
	}
	if d.Nights <= 0 {
		inputErr.addError("nights", "nights must be positive")
	}
	if d.People <= 0 {
		inputErr.addError("people", "people must be positive")
	}
	if len(d.Rooms) == 0 {
		inputErr.addError("rooms", "provide at least one room")
	}

	bookings := make([]models.RoomBooking, 0, len(d.Rooms))
	for i, req := range d.Rooms {
		field := fmt.Sprintf("rooms[%d]", i)
		room, err := s.catalog.Lookup(hotel, req.Type)
		if err != nil {
			inputErr.addError(field+".type", fmt.Sprintf("unknown room type %q", req.Type))
			continue
		}
		if !room.Admits(req.Adults, req.Children) {
			inputErr.addError(field+".occupancy", fmt.Sprintf("%s takes %d-%d adults and %d-%d children",
				room.Type, room.Occupancy[models.AdultMin], room.Occupancy[models.AdultMax],
				room.Occupancy[models.ChildMin], room.Occupancy[models.ChildMax]))
			continue
		}
		bookings = append(bookings, models.RoomBooking{
			Room:              room,
			Adults:            req.Adults,
			Children:          req.Children,
			BreakfastIncluded: req.Breakfast,
		})
	}

	if !inputErr.empty() {
		return nil, inputErr
	}
	return bookings, nil
}

// checkCapacity must run under h.mu.
func (s *ReservationService) checkCapacity(hotel string, h *hotelState, r *models.Reservation) error {
	requested := r.RoomCounts()
	limit := make(map[string]int, len(requested))

	if s.opts.CapacityMode == config.CapacityAvailable {
		free, err := s.calc.Available(hotel, h.reservations, r.CheckinDate, r.CheckoutDate())
		if err != nil {
			return err
		}
		for roomType := range requested {
			limit[roomType] = free[roomType]
		}
	} else {
		for roomType := range requested {
			units, err := s.catalog.Units(hotel, roomType)
			if err != nil {
				return err
			}
			limit[roomType] = units
		}
	}

	capErr := &CapacityError{Requested: map[string]int{}, Limit: map[string]int{}}
	for roomType, n := range requested {
		if n > limit[roomType] {
			capErr.Requested[roomType] = n
			capErr.Limit[roomType] = limit[roomType]
		}
	}
	if len(capErr.Requested) > 0 {
		return capErr
	}
	return nil
}

// CreateReservation validates the draft, checks capacity and accepts the
// reservation with the next number and the standard deposit. Nothing is
// stored when an error is returned.
func (s *ReservationService) CreateReservation(ctx context.Context, hotel string, d Draft) (*models.Reservation, error) {
	h, err := s.hotel(hotel)
	if err != nil {
		return nil, err
	}

	rooms, err := s.validate(hotel, d)
	if err != nil {
		return nil, err
	}

	r := &models.Reservation{
		Name:        d.Name,
		Type:        d.Type,
		CheckinDate: models.DateOf(d.CheckinDate),
		Nights:      d.Nights,
		People:      d.People,
		Rooms:       rooms,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := s.checkCapacity(hotel, h, r); err != nil {
		s.logger.Info().Err(err).Str("hotel", hotel).Str("name", r.Name).Msg("reservation rejected")
		return nil, err
	}

	number, err := s.seq.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("next reservation number: %w", err)
	}
	r.Number = number
	s.opts.Policy.ChargeDeposit(r, s.today())
	s.opts.Policy.Recompute(r)
	r.TotalCost.BilledDate = s.today()

	h.reservations = append(h.reservations, r)
	s.persistReservations(ctx, hotel, models.CollectionReservations, h.reservations)
	s.publish(events.EventReservationCreated, hotel, r, false)

	s.logger.Info().Str("hotel", hotel).Int64("number", r.Number).Str("name", r.Name).
		Int("rooms", r.NumberOfRooms()).Float64("total", r.TotalCost.AmountDue).Msg("reservation created")
	return r.Clone(), nil
}

// find must run under h.mu.
func (h *hotelState) find(q Lookup) *models.Reservation {
	if q.Number != 0 {
		if i := indexOf(h.reservations, q.Number); i >= 0 {
			return h.reservations[i]
		}
	}
	if q.Name == "" {
		return nil
	}
	date := models.DateOf(q.Date)
	for _, r := range h.reservations {
		if r.Name == q.Name && r.CheckinDate.Equal(date) {
			return r
		}
	}
	return nil
}

// FindReservation returns a copy of the active reservation matching q.
func (s *ReservationService) FindReservation(hotel string, q Lookup) (*models.Reservation, error) {
	h, err := s.hotel(hotel)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	r := h.find(q)
	if r == nil {
		return nil, ErrReservationNotFound
	}
	return r.Clone(), nil
}

func (s *ReservationService) ReservationByNumber(hotel string, number int64) (*models.Reservation, error) {
	if number == 0 {
		return nil, ErrReservationNotFound
	}
	return s.FindReservation(hotel, Lookup{Number: number})
}

func (s *ReservationService) ReservationByNameAndDate(hotel, name string, checkin time.Time) (*models.Reservation, error) {
	return s.FindReservation(hotel, Lookup{Name: name, Date: checkin})
}

// OnlyBookingOnCheckInDate reports whether the customer has no active
// reservation starting on date yet.
func (s *ReservationService) OnlyBookingOnCheckInDate(hotel, name string, date time.Time) (bool, error) {
	_, err := s.ReservationByNameAndDate(hotel, name, date)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, ErrReservationNotFound):
		return true, nil
	default:
		return false, err
	}
}

// ReservationsOnDate lists arrivals (checkin true) or departures on date.
// Departures only include reservations that are checked in.
func (s *ReservationService) ReservationsOnDate(hotel string, date time.Time, checkin bool) ([]*models.Reservation, error) {
	h, err := s.hotel(hotel)
	if err != nil {
		return nil, err
	}
	date = models.DateOf(date)

	h.mu.Lock()
	defer h.mu.Unlock()

	var out []*models.Reservation
	for _, r := range h.reservations {
		if checkin {
			if r.CheckinDate.Equal(date) {
				out = append(out, r.Clone())
			}
			continue
		}
		if !r.CheckoutDate().Equal(date) {
			continue
		}
		if i := stayIndex(h.stays, r.Number); i >= 0 && h.stays[i].CheckedIn {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// HotelStay returns a copy of the stay of a reservation.
func (s *ReservationService) HotelStay(hotel string, number int64) (*models.HotelStay, error) {
	h, err := s.hotel(hotel)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	i := stayIndex(h.stays, number)
	if i < 0 {
		return nil, ErrNotCheckedIn
	}
	return h.stays[i].Clone(), nil
}

func (s *ReservationService) IsStayed(hotel string, number int64) (bool, error) {
	h, err := s.hotel(hotel)
	if err != nil {
		return false, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return stayIndex(h.stays, number) >= 0, nil
}

// Available returns the free units per room type over [from, to).
func (s *ReservationService) Available(hotel string, from, to time.Time) (map[string]int, error) {
	h, err := s.hotel(hotel)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return s.calc.Available(hotel, h.reservations, models.DateOf(from), models.DateOf(to))
}

// AvailableRoom returns the free units of one room type over [from, to).
func (s *ReservationService) AvailableRoom(hotel, roomType string, from, to time.Time) (int, error) {
	h, err := s.hotel(hotel)
	if err != nil {
		return 0, err
	}
	room, err := s.catalog.Lookup(hotel, roomType)
	if err != nil {
		return 0, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return s.calc.AvailableRoom(hotel, h.reservations, room, models.DateOf(from), models.DateOf(to))
}

// Reservations returns copies of the active reservations of a hotel.
func (s *ReservationService) Reservations(hotel string) ([]*models.Reservation, error) {
	h, err := s.hotel(hotel)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return cloneAll(h.reservations), nil
}

func (s *ReservationService) Cancellations(hotel string) ([]*models.Reservation, error) {
	h, err := s.hotel(hotel)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return cloneAll(h.cancellations), nil
}

func (s *ReservationService) Stays(hotel string) ([]*models.HotelStay, error) {
	h, err := s.hotel(hotel)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*models.HotelStay, 0, len(h.stays))
	for _, st := range h.stays {
		out = append(out, st.Clone())
	}
	return out, nil
}

// Hotels lists the hotels the engine serves.
func (s *ReservationService) Hotels() []string {
	return s.catalog.Hotels()
}
