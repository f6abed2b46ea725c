package models

import (
	"fmt"
	"time"
)

// ReservationType is the pricing and refund class of a reservation.
type ReservationType string

const (
	ReservationStandard        ReservationType = "S"
	ReservationAdvancePurchase ReservationType = "AP"
)

// ParseReservationType accepts "S" and "AP".
func ParseReservationType(s string) (ReservationType, error) {
	t := ReservationType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown reservation type %q", s)
	}
	return t, nil
}

func (t ReservationType) Valid() bool {
	return t == ReservationStandard || t == ReservationAdvancePurchase
}

// Reservation is one customer's booking of one or more rooms in a hotel.
type Reservation struct {
	Number      int64           `json:"number"`
	Name        string          `json:"name"`
	Type        ReservationType `json:"type"`
	CheckinDate time.Time       `json:"checkin_date"`
	Nights      int             `json:"nights"`
	People      int             `json:"people"`
	Rooms       []RoomBooking   `json:"rooms"`
	TotalCost   Bill            `json:"total_cost"`
	Deposit     Bill            `json:"deposit"`
}

// CheckoutDate is the checkin date plus the number of nights.
func (r *Reservation) CheckoutDate() time.Time {
	return r.CheckinDate.AddDate(0, 0, r.Nights)
}

func (r *Reservation) NumberOfRooms() int {
	return len(r.Rooms)
}

// Occupies reports whether the stay [checkin, checkout) intersects [from, to).
func (r *Reservation) Occupies(from, to time.Time) bool {
	return r.CheckinDate.Before(to) && from.Before(r.CheckoutDate())
}

// RoomCounts returns how many units of each room type the reservation holds.
func (r *Reservation) RoomCounts() map[string]int {
	counts := make(map[string]int, len(r.Rooms))
	for _, rb := range r.Rooms {
		if rb.Room == nil {
			continue
		}
		counts[rb.Room.Type]++
	}
	return counts
}

// Equal matches name, number, type, checkin date, nights and room count.
// The rooms themselves are not compared, so two different room selections
// with the same count are equal.
func (r *Reservation) Equal(other *Reservation) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Name == other.Name &&
		r.Number == other.Number &&
		r.Type == other.Type &&
		r.CheckinDate.Equal(other.CheckinDate) &&
		r.Nights == other.Nights &&
		r.NumberOfRooms() == other.NumberOfRooms()
}

// Clone returns a copy that shares only the immutable Room pointers.
func (r *Reservation) Clone() *Reservation {
	c := *r
	c.Rooms = append([]RoomBooking(nil), r.Rooms...)
	return &c
}
