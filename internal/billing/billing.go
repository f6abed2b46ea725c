// Package billing computes what a reservation owes.
package billing

import (
	"errors"
	"time"

	"hotelbook/internal/models"
)

var ErrInvalidDiscount = errors.New("discount must be between 0 and 100 percent")

// Policy holds the money constants of the chain.
type Policy struct {
	Deposit                 float64
	BreakfastPerPerson      float64
	AdvancePurchaseDiscount float64
}

func DefaultPolicy() Policy {
	return Policy{
		Deposit:                 75,
		BreakfastPerPerson:      14,
		AdvancePurchaseDiscount: 0.05,
	}
}

// Recompute derives the total cost of r from the room rates, stores it in
// r.TotalCost.AmountDue and returns it. The billed date is left untouched.
//
// Nightly rates follow the weekday of each night. Advance purchase bookings get
// the discount on the room sum only. The current deposit is added on top, and
// each breakfast room adds the per-person price times the reservation's people
// count for every night.
func (p Policy) Recompute(r *models.Reservation) float64 {
	var rooms, breakfast float64
	for i := 0; i < r.Nights; i++ {
		weekday := models.WeekdayIndex(r.CheckinDate.AddDate(0, 0, i))
		for _, rb := range r.Rooms {
			if rb.Room != nil {
				rooms += rb.Room.Rate(weekday)
			}
			if rb.BreakfastIncluded {
				breakfast += p.BreakfastPerPerson * float64(r.People)
			}
		}
	}

	if r.Type == models.ReservationAdvancePurchase {
		rooms -= rooms * p.AdvancePurchaseDiscount
	}

	total := rooms + r.Deposit.AmountDue + breakfast
	r.TotalCost.Name = models.BillTotalCost
	r.TotalCost.AmountDue = total
	return total
}

// ChargeDeposit sets the deposit to the policy amount, billed on the given date.
func (p Policy) ChargeDeposit(r *models.Reservation, on time.Time) {
	r.Deposit.Name = models.BillDeposit
	r.Deposit.Charge(p.Deposit, on)
}

// ExcludingDeposit is the amount shown to a departing guest.
func (p Policy) ExcludingDeposit(r *models.Reservation) float64 {
	return r.TotalCost.AmountDue - p.Deposit
}

// NormalizeDiscount accepts a fraction in [0, 1] or a percentage in (1, 100]
// and returns the fraction.
func NormalizeDiscount(v float64) (float64, error) {
	if v > 1 {
		v /= 100
	}
	if v < 0 || v > 1 {
		return 0, ErrInvalidDiscount
	}
	return v, nil
}

// ApplyDiscount reduces the amount due by fraction d of its current value.
// Repeated discounts compound.
func ApplyDiscount(b *models.Bill, d float64) {
	b.AmountDue *= 1 - d
}
