package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelbook/internal/models"
)

func flatRoom(rate float64) *models.Room {
	r := &models.Room{Type: "flat", Occupancy: [4]int{1, 0, 2, 2}}
	for i := range r.Rates {
		r.Rates[i] = rate
	}
	return r
}

func reservation(typ models.ReservationType, rooms ...models.RoomBooking) *models.Reservation {
	r := &models.Reservation{
		Type:        typ,
		CheckinDate: models.Day(2026, time.March, 2),
		Nights:      2,
		People:      2,
		Rooms:       rooms,
	}
	DefaultPolicy().ChargeDeposit(r, models.Day(2026, time.February, 1))
	return r
}

func TestRecompute(t *testing.T) {
	room := flatRoom(75)

	tests := []struct {
		name     string
		res      *models.Reservation
		expected float64
	}{
		{
			name:     "standard two nights",
			res:      reservation(models.ReservationStandard, models.RoomBooking{Room: room, Adults: 1}),
			expected: 225,
		},
		{
			name:     "advance purchase discount on rooms only",
			res:      reservation(models.ReservationAdvancePurchase, models.RoomBooking{Room: room, Adults: 1}),
			expected: 217.5,
		},
		{
			name:     "breakfast uses reservation people count",
			res:      reservation(models.ReservationStandard, models.RoomBooking{Room: room, Adults: 1, BreakfastIncluded: true}),
			expected: 225 + 2*14*2,
		},
		{
			name: "two rooms one with breakfast",
			res: reservation(models.ReservationStandard,
				models.RoomBooking{Room: room, Adults: 1, BreakfastIncluded: true},
				models.RoomBooking{Room: room, Adults: 1}),
			expected: 300 + 75 + 2*14*2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			first := p.Recompute(tt.res)
			second := p.Recompute(tt.res)

			assert.InDelta(t, tt.expected, first, 1e-9)
			assert.Equal(t, first, second)
			assert.Equal(t, first, tt.res.TotalCost.AmountDue)
			assert.Equal(t, models.BillTotalCost, tt.res.TotalCost.Name)
		})
	}
}

func TestRecompute_WeekdayRates(t *testing.T) {
	room := &models.Room{Type: "double", Rates: [7]float64{10, 20, 30, 40, 50, 60, 70}}
	r := &models.Reservation{
		Type:        models.ReservationStandard,
		CheckinDate: models.Day(2026, time.March, 6), // Friday
		Nights:      3,
		Rooms:       []models.RoomBooking{{Room: room}},
	}

	assert.Equal(t, 50.0+60+70, DefaultPolicy().Recompute(r))
}

func TestExcludingDeposit(t *testing.T) {
	r := reservation(models.ReservationStandard, models.RoomBooking{Room: flatRoom(75)})
	p := DefaultPolicy()
	p.Recompute(r)

	assert.Equal(t, 150.0, p.ExcludingDeposit(r))
}

func TestNormalizeDiscount(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
		wantErr  bool
	}{
		{0.1, 0.1, false},
		{1, 1, false},
		{10, 0.1, false},
		{100, 1, false},
		{0, 0, false},
		{-0.2, 0, true},
		{150, 0, true},
	}

	for _, tt := range tests {
		got, err := NormalizeDiscount(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidDiscount, "input %v", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.InDelta(t, tt.expected, got, 1e-9, "input %v", tt.in)
	}
}

func TestApplyDiscountCompounds(t *testing.T) {
	b := &models.Bill{AmountDue: 200}
	ApplyDiscount(b, 0.1)
	ApplyDiscount(b, 0.1)

	assert.InDelta(t, 162.0, b.AmountDue, 1e-9)
}
