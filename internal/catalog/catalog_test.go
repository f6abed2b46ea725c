package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelbook/internal/config"
	"hotelbook/internal/models"
)

func TestFromConfig(t *testing.T) {
	cfg := &config.HotelsConfig{Hotels: []config.HotelConfig{
		{Name: "Harbour", Rooms: []config.RoomTypeConfig{
			{Type: "single", Units: 4, Occupancy: [4]int{1, 0, 1, 0}, Rates: [7]float64{60, 60, 60, 60, 75, 75, 70}},
			{Type: "double", Units: 2},
		}},
		{Name: "Annex"},
	}}

	c := FromConfig(cfg)

	assert.Equal(t, []string{"Annex", "Harbour"}, c.Hotels())
	assert.True(t, c.HasHotel("Annex"))
	assert.False(t, c.HasHotel("Nowhere"))

	room, err := c.Lookup("Harbour", "single")
	require.NoError(t, err)
	assert.Equal(t, 75.0, room.Rate(4))

	units, err := c.Units("Harbour", "double")
	require.NoError(t, err)
	assert.Equal(t, 2, units)

	types, err := c.RoomTypes("Harbour")
	require.NoError(t, err)
	assert.Equal(t, []string{"single", "double"}, types)
}

func TestLookupErrors(t *testing.T) {
	c := New()
	c.Add("Harbour", &models.Room{Type: "single"}, 1)

	_, err := c.Lookup("Nowhere", "single")
	assert.ErrorIs(t, err, ErrHotelNotFound)

	_, err = c.Lookup("Harbour", "suite")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = c.Units("Harbour", "suite")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = c.AllRooms("Nowhere")
	assert.ErrorIs(t, err, ErrHotelNotFound)
}

func TestAllRoomsIsCopy(t *testing.T) {
	c := New()
	room := &models.Room{Type: "single"}
	c.Add("Harbour", room, 3)

	all, err := c.AllRooms("Harbour")
	require.NoError(t, err)
	all[room] = 100

	units, err := c.Units("Harbour", "single")
	require.NoError(t, err)
	assert.Equal(t, 3, units)
}
