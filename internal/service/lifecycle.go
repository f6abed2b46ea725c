package service

import (
	"context"

	"hotelbook/internal/billing"
	"hotelbook/internal/events"
	"hotelbook/internal/models"
)

// sweepNoShows cancels, without refund, every reservation whose checkin date
// has come and that nobody checked in. except is left alone. Must run under h.mu.
func (s *ReservationService) sweepNoShows(ctx context.Context, hotel string, h *hotelState, except int64) []*models.Reservation {
	today := s.today()

	var swept []*models.Reservation
	kept := make([]*models.Reservation, 0, len(h.reservations))
	for _, r := range h.reservations {
		if r.Number == except || r.CheckinDate.After(today) || stayIndex(h.stays, r.Number) >= 0 {
			kept = append(kept, r)
			continue
		}
		s.opts.Policy.Recompute(r)
		h.cancellations = append(h.cancellations, r)
		swept = append(swept, r)
	}
	if len(swept) == 0 {
		return nil
	}

	h.reservations = kept
	s.persistReservations(ctx, hotel, models.CollectionReservations, h.reservations)
	s.persistReservations(ctx, hotel, models.CollectionCancellations, h.cancellations)

	out := make([]*models.Reservation, 0, len(swept))
	for _, r := range swept {
		s.publish(events.EventReservationNoShow, hotel, r, false)
		s.logger.Info().Str("hotel", hotel).Int64("number", r.Number).Float64("charged", r.TotalCost.AmountDue).Msg("no-show cancelled")
		out = append(out, r.Clone())
	}
	return out
}

// SweepNoShows cancels the hotel's no-shows and returns them. Running it again
// on unchanged state does nothing.
func (s *ReservationService) SweepNoShows(ctx context.Context, hotel string) ([]*models.Reservation, error) {
	h, err := s.hotel(hotel)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return s.sweepNoShows(ctx, hotel, h, 0), nil
}

// CheckIn sweeps the hotel's no-shows, then turns the reservation into a stay
// with its bill locked in and the deposit billed on the checkin date.
func (s *ReservationService) CheckIn(ctx context.Context, hotel string, number int64) (*models.HotelStay, error) {
	h, err := s.hotel(hotel)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	s.sweepNoShows(ctx, hotel, h, number)

	i := indexOf(h.reservations, number)
	if i < 0 {
		return nil, ErrReservationNotFound
	}
	if stayIndex(h.stays, number) >= 0 {
		return nil, ErrAlreadyStayed
	}

	r := h.reservations[i]
	s.opts.Policy.Recompute(r)
	r.Deposit.BilledDate = r.CheckinDate

	stay := models.NewHotelStay(r)
	h.stays = append(h.stays, stay)

	s.persistReservations(ctx, hotel, models.CollectionReservations, h.reservations)
	s.persistStays(ctx, hotel, h.stays)
	s.publish(events.EventStayCheckedIn, hotel, r, false)

	s.logger.Info().Str("hotel", hotel).Int64("number", number).Float64("deposit", r.Deposit.AmountDue).Msg("checked in")
	return stay.Clone(), nil
}

// CheckOut closes the stay of a reservation and bills the total on the checkout date.
func (s *ReservationService) CheckOut(ctx context.Context, hotel string, number int64) (*models.HotelStay, error) {
	h, err := s.hotel(hotel)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	j := stayIndex(h.stays, number)
	if j < 0 {
		if indexOf(h.reservations, number) < 0 {
			return nil, ErrReservationNotFound
		}
		return nil, ErrNotCheckedIn
	}

	stay := h.stays[j]
	r := stay.Reservation
	s.opts.Policy.Recompute(r)
	r.TotalCost.BilledDate = r.CheckoutDate()

	stay.CheckedIn = false
	stay.StayStart = r.CheckinDate
	stay.StayEnd = r.CheckoutDate()
	stay.TotalIncome = r.TotalCost

	s.persistReservations(ctx, hotel, models.CollectionReservations, h.reservations)
	s.persistStays(ctx, hotel, h.stays)
	s.publish(events.EventStayCheckedOut, hotel, r, false)

	s.logger.Info().Str("hotel", hotel).Int64("number", number).
		Float64("total", r.TotalCost.AmountDue).
		Float64("excluding_deposit", s.opts.Policy.ExcludingDeposit(r)).
		Msg("checked out")
	return stay.Clone(), nil
}

// Cancel moves an active reservation to the cancellations and reports whether
// the customer was refunded.
//
// A cancellation on the day before checkin is late: an unbilled reservation is
// billed in full with the deposit and nothing is refunded. Earlier, standard
// reservations are refunded in full while unbilled advance purchase ones are
// charged like late ones. A checked-in reservation cannot be cancelled.
func (s *ReservationService) Cancel(ctx context.Context, hotel string, number int64) (bool, error) {
	h, err := s.hotel(hotel)
	if err != nil {
		return false, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	i := indexOf(h.reservations, number)
	if i < 0 {
		return false, ErrReservationNotFound
	}
	if stayIndex(h.stays, number) >= 0 {
		return false, ErrAlreadyStayed
	}
	r := h.reservations[i]
	today := s.today()

	charge := func() {
		s.opts.Policy.ChargeDeposit(r, today)
		s.opts.Policy.Recompute(r)
		r.TotalCost.BilledDate = today
	}

	refunded := false
	late := today.Equal(r.CheckinDate.AddDate(0, 0, -1))
	switch {
	case late:
		if r.TotalCost.Unbilled() {
			charge()
		}
	case r.Type == models.ReservationStandard:
		r.TotalCost.AmountDue = 0
		r.Deposit.AmountDue = 0
		refunded = true
	case r.Type == models.ReservationAdvancePurchase:
		if r.TotalCost.Unbilled() {
			charge()
		}
	}

	h.reservations = append(h.reservations[:i:i], h.reservations[i+1:]...)
	h.cancellations = append(h.cancellations, r)

	s.persistReservations(ctx, hotel, models.CollectionReservations, h.reservations)
	s.persistReservations(ctx, hotel, models.CollectionCancellations, h.cancellations)
	s.publish(events.EventReservationCancelled, hotel, r, refunded)

	s.logger.Info().Str("hotel", hotel).Int64("number", number).Bool("late", late).Bool("refunded", refunded).Msg("reservation cancelled")
	return refunded, nil
}

// purgeable must run under h.mu.
func (s *ReservationService) purgeable(h *hotelState, r *models.Reservation) error {
	if !s.today().After(r.CheckoutDate().AddDate(0, 0, s.opts.PurgeAfterDays)) {
		return ErrRetentionNotElapsed
	}
	if indexOf(h.cancellations, r.Number) < 0 && stayIndex(h.stays, r.Number) < 0 {
		return ErrNotProcessed
	}
	return nil
}

// Remove purges a processed reservation from the active list once the
// retention window after checkout has passed. Cancellation and stay records stay.
func (s *ReservationService) Remove(ctx context.Context, hotel string, number int64) error {
	h, err := s.hotel(hotel)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	i := indexOf(h.reservations, number)
	if i < 0 {
		return ErrReservationNotFound
	}
	r := h.reservations[i]
	if err := s.purgeable(h, r); err != nil {
		return err
	}

	h.reservations = append(h.reservations[:i:i], h.reservations[i+1:]...)
	s.persistReservations(ctx, hotel, models.CollectionReservations, h.reservations)
	s.publish(events.EventReservationRemoved, hotel, r, false)

	s.logger.Info().Str("hotel", hotel).Int64("number", number).Msg("reservation purged")
	return nil
}

// PurgeCandidates lists the active reservations Remove would accept today.
func (s *ReservationService) PurgeCandidates(hotel string) ([]*models.Reservation, error) {
	h, err := s.hotel(hotel)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []*models.Reservation
	for _, r := range h.reservations {
		if s.purgeable(h, r) == nil {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// RemoveHotelStay deletes a stay record once the long-term retention period
// after its checkin date has passed.
func (s *ReservationService) RemoveHotelStay(ctx context.Context, hotel string, number int64) error {
	h, err := s.hotel(hotel)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	j := stayIndex(h.stays, number)
	if j < 0 {
		return ErrNotCheckedIn
	}
	stay := h.stays[j]
	if !s.today().After(stay.Reservation.CheckinDate.AddDate(s.opts.StayRetentionYears, 0, 0)) {
		return ErrRetentionNotElapsed
	}

	h.stays = append(h.stays[:j:j], h.stays[j+1:]...)
	s.persistStays(ctx, hotel, h.stays)
	s.publish(events.EventStayRemoved, hotel, stay.Reservation, false)

	s.logger.Info().Str("hotel", hotel).Int64("number", number).Msg("stay record removed")
	return nil
}

// StayPurgeCandidates lists the stays RemoveHotelStay would accept today.
func (s *ReservationService) StayPurgeCandidates(hotel string) ([]*models.HotelStay, error) {
	h, err := s.hotel(hotel)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []*models.HotelStay
	for _, st := range h.stays {
		if s.today().After(st.Reservation.CheckinDate.AddDate(s.opts.StayRetentionYears, 0, 0)) {
			out = append(out, st.Clone())
		}
	}
	return out, nil
}

// ApplyDiscount reduces a billed reservation's total by a fraction (0-1) or a
// percentage (1-100). Discounts compound.
func (s *ReservationService) ApplyDiscount(ctx context.Context, hotel string, number int64, value float64) (*models.Reservation, error) {
	d, err := billing.NormalizeDiscount(value)
	if err != nil {
		return nil, err
	}
	h, err := s.hotel(hotel)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	i := indexOf(h.reservations, number)
	if i < 0 {
		return nil, ErrReservationNotFound
	}
	r := h.reservations[i]
	if r.TotalCost.Unbilled() {
		return nil, ErrNotBilled
	}

	billing.ApplyDiscount(&r.TotalCost, d)

	s.persistReservations(ctx, hotel, models.CollectionReservations, h.reservations)
	if stayIndex(h.stays, number) >= 0 {
		s.persistStays(ctx, hotel, h.stays)
	}
	s.publish(events.EventReservationDiscounted, hotel, r, false)

	s.logger.Info().Str("hotel", hotel).Int64("number", number).Float64("discount", d).Float64("total", r.TotalCost.AmountDue).Msg("discount applied")
	return r.Clone(), nil
}
