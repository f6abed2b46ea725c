package models

// Occupancy slots of Room.Occupancy.
const (
	AdultMin = iota
	ChildMin
	AdultMax
	ChildMax
)

// Room is a room type of a hotel, not a physical numbered room.
// Rooms are immutable once the catalog has been loaded.
type Room struct {
	Type      string     `json:"type"`
	Occupancy [4]int     `json:"occupancy"` // adult min, child min, adult max, child max
	Rates     [7]float64 `json:"rates"`     // nightly rate, Monday first
}

// Rate returns the nightly rate for a weekday index, or -1 when the index is out of range.
func (r *Room) Rate(day int) float64 {
	if day < 0 || day >= len(r.Rates) {
		return -1
	}
	return r.Rates[day]
}

// OccupancyBound returns one occupancy limit of the room.
func (r *Room) OccupancyBound(adult, min bool) int {
	switch {
	case adult && min:
		return r.Occupancy[AdultMin]
	case adult:
		return r.Occupancy[AdultMax]
	case min:
		return r.Occupancy[ChildMin]
	default:
		return r.Occupancy[ChildMax]
	}
}

// Admits reports whether the given guests fit the occupancy bounds of the room.
func (r *Room) Admits(adults, children int) bool {
	return adults >= r.Occupancy[AdultMin] && adults <= r.Occupancy[AdultMax] &&
		children >= r.Occupancy[ChildMin] && children <= r.Occupancy[ChildMax]
}

// Equal compares rooms by type only.
func (r *Room) Equal(other *Room) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Type == other.Type
}

func (r *Room) String() string {
	return r.Type
}

// RoomBooking binds one unit of a room type to a reservation.
type RoomBooking struct {
	Room              *Room `json:"room"`
	Adults            int   `json:"adults"`
	Children          int   `json:"children"`
	BreakfastIncluded bool  `json:"breakfast_included"`
}
