package models

// Collection names one of the per-hotel record sets.
type Collection string

const (
	CollectionReservations  Collection = "reservations"
	CollectionCancellations Collection = "cancellations"
	CollectionStays         Collection = "stays"
)

// Snapshot is the persisted state of all hotels.
type Snapshot struct {
	Reservations  map[string][]*Reservation
	Cancellations map[string][]*Reservation
	Stays         map[string][]*HotelStay
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Reservations:  make(map[string][]*Reservation),
		Cancellations: make(map[string][]*Reservation),
		Stays:         make(map[string][]*HotelStay),
	}
}

// MaxNumber returns the highest reservation number in the snapshot.
func (s *Snapshot) MaxNumber() int64 {
	var max int64
	check := func(r *Reservation) {
		if r != nil && r.Number > max {
			max = r.Number
		}
	}
	for _, list := range s.Reservations {
		for _, r := range list {
			check(r)
		}
	}
	for _, list := range s.Cancellations {
		for _, r := range list {
			check(r)
		}
	}
	for _, list := range s.Stays {
		for _, st := range list {
			check(st.Reservation)
		}
	}
	return max
}
