// Package availability computes how many units of each room type are free over a date range.
package availability

import (
	"time"

	"hotelbook/internal/models"
)

// Inventory is the part of the room catalog the calculator reads.
type Inventory interface {
	AllRooms(hotel string) (map[*models.Room]int, error)
	Units(hotel, roomType string) (int, error)
}

// Calculator never mutates the reservations it is given.
type Calculator struct {
	inventory Inventory
}

func NewCalculator(inventory Inventory) *Calculator {
	return &Calculator{inventory: inventory}
}

// Available returns the free units of every room type of the hotel over [from, to).
// active must hold the hotel's reservations that are neither cancelled nor purged.
func (c *Calculator) Available(hotel string, active []*models.Reservation, from, to time.Time) (map[string]int, error) {
	rooms, err := c.inventory.AllRooms(hotel)
	if err != nil {
		return nil, err
	}

	free := make(map[string]int, len(rooms))
	for room, units := range rooms {
		free[room.Type] = units
	}
	if len(active) == 0 {
		return free, nil
	}

	for roomType, n := range Booked(active, from, to) {
		if _, ok := free[roomType]; ok {
			free[roomType] -= n
		}
	}
	return free, nil
}

// AvailableRoom returns the free units of one room type over [from, to).
// The result is negative only when the hotel is oversold.
func (c *Calculator) AvailableRoom(hotel string, active []*models.Reservation, room *models.Room, from, to time.Time) (int, error) {
	units, err := c.inventory.Units(hotel, room.Type)
	if err != nil {
		return 0, err
	}
	if len(active) == 0 {
		return units, nil
	}
	return units - Booked(active, from, to)[room.Type], nil
}

// Booked counts the room bookings per type of the reservations overlapping [from, to).
// Each RoomBooking consumes one unit for the whole span of its reservation.
func Booked(active []*models.Reservation, from, to time.Time) map[string]int {
	booked := make(map[string]int)
	for _, r := range active {
		if !r.Occupies(from, to) {
			continue
		}
		for roomType, n := range r.RoomCounts() {
			booked[roomType] += n
		}
	}
	return booked
}
