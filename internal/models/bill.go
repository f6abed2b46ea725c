package models

import "time"

const (
	BillTotalCost = "Total cost"
	BillDeposit   = "Deposit"
)

// Bill is a named amount due, dated when the money became payable.
type Bill struct {
	Name       string    `json:"name"`
	BilledDate time.Time `json:"billed_date"`
	AmountDue  float64   `json:"amount_due"`
}

// Charge sets the amount and the date it was billed on.
func (b *Bill) Charge(amount float64, on time.Time) {
	b.AmountDue = amount
	b.BilledDate = DateOf(on)
}

// Unbilled reports whether nothing has been charged on this bill.
func (b *Bill) Unbilled() bool {
	return b.AmountDue == 0
}
