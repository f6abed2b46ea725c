// Package catalog holds the immutable room types of every hotel and their unit counts.
package catalog

import (
	"errors"
	"sort"

	"hotelbook/internal/config"
	"hotelbook/internal/models"
)

var (
	ErrHotelNotFound = errors.New("hotel not found")
	ErrRoomNotFound  = errors.New("room type not found")
)

type entry struct {
	room  *models.Room
	units int
}

type hotel struct {
	order []string
	rooms map[string]entry
}

// Catalog is read-only after construction and safe for concurrent use.
type Catalog struct {
	hotels map[string]*hotel
}

// New returns an empty catalog; hotels are added with Add before it is shared.
func New() *Catalog {
	return &Catalog{hotels: make(map[string]*hotel)}
}

// FromConfig builds the catalog from a validated hotels file.
func FromConfig(cfg *config.HotelsConfig) *Catalog {
	c := New()
	for _, h := range cfg.Hotels {
		c.AddHotel(h.Name)
		for _, r := range h.Rooms {
			c.Add(h.Name, &models.Room{Type: r.Type, Occupancy: r.Occupancy, Rates: r.Rates}, r.Units)
		}
	}
	return c
}

// AddHotel registers a hotel with no rooms.
func (c *Catalog) AddHotel(name string) {
	if _, ok := c.hotels[name]; ok {
		return
	}
	c.hotels[name] = &hotel{rooms: make(map[string]entry)}
}

// Add registers a room type of a hotel, replacing an earlier one of the same type.
func (c *Catalog) Add(hotelName string, room *models.Room, units int) {
	c.AddHotel(hotelName)
	h := c.hotels[hotelName]
	if _, ok := h.rooms[room.Type]; !ok {
		h.order = append(h.order, room.Type)
	}
	h.rooms[room.Type] = entry{room: room, units: units}
}

func (c *Catalog) HasHotel(name string) bool {
	_, ok := c.hotels[name]
	return ok
}

// Hotels returns the hotel names in sorted order.
func (c *Catalog) Hotels() []string {
	names := make([]string, 0, len(c.hotels))
	for name := range c.hotels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) Lookup(hotelName, roomType string) (*models.Room, error) {
	h, ok := c.hotels[hotelName]
	if !ok {
		return nil, ErrHotelNotFound
	}
	e, ok := h.rooms[roomType]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return e.room, nil
}

// Units returns the number of physical rooms of a type.
func (c *Catalog) Units(hotelName, roomType string) (int, error) {
	h, ok := c.hotels[hotelName]
	if !ok {
		return 0, ErrHotelNotFound
	}
	e, ok := h.rooms[roomType]
	if !ok {
		return 0, ErrRoomNotFound
	}
	return e.units, nil
}

// AllRooms returns a copy of the room-to-units mapping of a hotel.
func (c *Catalog) AllRooms(hotelName string) (map[*models.Room]int, error) {
	h, ok := c.hotels[hotelName]
	if !ok {
		return nil, ErrHotelNotFound
	}
	out := make(map[*models.Room]int, len(h.rooms))
	for _, e := range h.rooms {
		out[e.room] = e.units
	}
	return out, nil
}

// RoomTypes lists the room types of a hotel in catalog order.
func (c *Catalog) RoomTypes(hotelName string) ([]string, error) {
	h, ok := c.hotels[hotelName]
	if !ok {
		return nil, ErrHotelNotFound
	}
	return append([]string(nil), h.order...), nil
}
