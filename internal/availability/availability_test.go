package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelbook/internal/catalog"
	"hotelbook/internal/models"
)

func day(d int) time.Time {
	return models.Day(2026, time.March, d)
}

func fixture() (*Calculator, *models.Room, *models.Room) {
	single := &models.Room{Type: "single", Occupancy: [4]int{1, 0, 1, 0}}
	double := &models.Room{Type: "double", Occupancy: [4]int{1, 0, 2, 1}}
	c := catalog.New()
	c.Add("Harbour", single, 3)
	c.Add("Harbour", double, 2)
	return NewCalculator(c), single, double
}

func booking(checkin time.Time, nights int, rooms ...*models.Room) *models.Reservation {
	r := &models.Reservation{CheckinDate: checkin, Nights: nights}
	for _, room := range rooms {
		r.Rooms = append(r.Rooms, models.RoomBooking{Room: room, Adults: 1})
	}
	return r
}

func TestAvailable_NoReservations(t *testing.T) {
	calc, _, _ := fixture()

	free, err := calc.Available("Harbour", nil, day(1), day(5))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"single": 3, "double": 2}, free)
}

func TestAvailable_UnknownHotel(t *testing.T) {
	calc, single, _ := fixture()

	_, err := calc.Available("Nowhere", nil, day(1), day(2))
	assert.ErrorIs(t, err, catalog.ErrHotelNotFound)

	_, err = calc.AvailableRoom("Nowhere", nil, single, day(1), day(2))
	assert.ErrorIs(t, err, catalog.ErrHotelNotFound)
}

func TestAvailableRoom_Overlap(t *testing.T) {
	calc, single, double := fixture()
	active := []*models.Reservation{
		booking(day(10), 3, single, single), // 10..13
		booking(day(12), 2, single, double), // 12..14
		booking(day(20), 1, double),
	}

	tests := []struct {
		name     string
		room     *models.Room
		from, to time.Time
		expected int
	}{
		{"before everything", single, day(1), day(10), 3},
		{"first stay only", single, day(10), day(12), 1},
		{"both stays", single, day(12), day(13), 0},
		{"checkout day is free", single, day(14), day(15), 3},
		{"double overlaps second", double, day(13), day(14), 1},
		{"window spans all", double, day(1), day(31), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.AvailableRoom("Harbour", active, tt.room, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestAvailable_DisjointReservationsDoNotInterfere(t *testing.T) {
	calc, single, _ := fixture()
	active := []*models.Reservation{
		booking(day(1), 2, single, single, single),
		booking(day(3), 2, single, single, single),
	}

	free, err := calc.Available("Harbour", active, day(1), day(3))
	require.NoError(t, err)
	assert.Equal(t, 0, free["single"])

	free, err = calc.Available("Harbour", active, day(5), day(6))
	require.NoError(t, err)
	assert.Equal(t, 3, free["single"])
}

func TestAvailable_OversoldGoesNegative(t *testing.T) {
	calc, _, double := fixture()
	active := []*models.Reservation{booking(day(1), 1, double, double, double)}

	got, err := calc.AvailableRoom("Harbour", active, double, day(1), day(2))
	require.NoError(t, err)
	assert.Equal(t, -1, got)
}
