package report

import (
	"sort"
	"time"

	"hotelbook/internal/models"
)

// RoomStats holds the per-day figures of one room type. Slices are indexed by
// day offset from Analysis.From.
type RoomStats struct {
	RoomType   string
	Income     []float64
	RoomNights []int
	Occupants  []int
}

func (r RoomStats) TotalIncome() float64 {
	var sum float64
	for _, v := range r.Income {
		sum += v
	}
	return sum
}

func (r RoomStats) TotalRoomNights() int {
	sum := 0
	for _, v := range r.RoomNights {
		sum += v
	}
	return sum
}

// AverageIncome is the income per room night, 0 when nothing was booked.
func (r RoomStats) AverageIncome() float64 {
	n := r.TotalRoomNights()
	if n == 0 {
		return 0
	}
	return r.TotalIncome() / float64(n)
}

// Analysis summarises stays of one hotel over [From, To).
type Analysis struct {
	Hotel string
	From  time.Time
	To    time.Time
	Rooms []RoomStats
}

func (a *Analysis) Days() int {
	return int(a.To.Sub(a.From).Hours() / 24)
}

func (a *Analysis) TotalIncome() float64 {
	var sum float64
	for _, r := range a.Rooms {
		sum += r.TotalIncome()
	}
	return sum
}

// Analyze spreads every stayed night inside [from, to) over its room type,
// counting the nightly rate as income.
func Analyze(hotel string, stays []*models.HotelStay, from, to time.Time) *Analysis {
	from, to = models.DateOf(from), models.DateOf(to)
	a := &Analysis{Hotel: hotel, From: from, To: to}
	days := a.Days()
	if days <= 0 {
		return a
	}

	byType := make(map[string]*RoomStats)
	for _, st := range stays {
		if st.Reservation == nil {
			continue
		}
		start, end := st.StayStart, st.StayEnd
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}

		for _, rb := range st.Reservation.Rooms {
			if rb.Room == nil {
				continue
			}
			stats, ok := byType[rb.Room.Type]
			if !ok {
				stats = &RoomStats{
					RoomType:   rb.Room.Type,
					Income:     make([]float64, days),
					RoomNights: make([]int, days),
					Occupants:  make([]int, days),
				}
				byType[rb.Room.Type] = stats
			}
			for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
				i := int(d.Sub(from).Hours() / 24)
				stats.Income[i] += rb.Room.Rate(models.WeekdayIndex(d))
				stats.RoomNights[i]++
				stats.Occupants[i] += rb.Adults + rb.Children
			}
		}
	}

	for _, s := range byType {
		a.Rooms = append(a.Rooms, *s)
	}
	sort.Slice(a.Rooms, func(i, j int) bool { return a.Rooms[i].RoomType < a.Rooms[j].RoomType })
	return a
}
