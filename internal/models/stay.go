package models

import "time"

// HotelStay is created once per reservation when it is checked in.
type HotelStay struct {
	Reservation *Reservation `json:"reservation"`
	CheckedIn   bool         `json:"checked_in"`
	TotalIncome Bill         `json:"total_income"`
	StayStart   time.Time    `json:"stay_start"`
	StayEnd     time.Time    `json:"stay_end"`
}

// NewHotelStay starts a checked-in stay over the planned dates of r.
func NewHotelStay(r *Reservation) *HotelStay {
	return &HotelStay{
		Reservation: r,
		CheckedIn:   true,
		TotalIncome: r.TotalCost,
		StayStart:   r.CheckinDate,
		StayEnd:     r.CheckoutDate(),
	}
}

func (s *HotelStay) CheckedOut() bool {
	return !s.CheckedIn
}

// Equal compares stays by their reservation.
func (s *HotelStay) Equal(other *HotelStay) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Reservation.Equal(other.Reservation)
}

// Clone copies the stay together with its reservation.
func (s *HotelStay) Clone() *HotelStay {
	c := *s
	if s.Reservation != nil {
		c.Reservation = s.Reservation.Clone()
	}
	return &c
}
