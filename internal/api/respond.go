package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"hotelbook/internal/catalog"
	"hotelbook/internal/models"
	"hotelbook/internal/service"
)

type errorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
	// Requested and Limit are set on capacity rejections.
	Requested map[string]int `json:"requested,omitempty"`
	Limit     map[string]int `json:"limit,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeEngineError maps an engine failure onto a status code.
func writeEngineError(w http.ResponseWriter, err error) {
	if inputErr := service.IsInputError(err); inputErr != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Fields: inputErr.Fields()})
		return
	}
	if capErr := service.IsCapacityError(err); capErr != nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Requested: capErr.Requested, Limit: capErr.Limit})
		return
	}

	switch {
	case errors.Is(err, service.ErrHotelNotFound),
		errors.Is(err, service.ErrReservationNotFound),
		errors.Is(err, catalog.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyStayed),
		errors.Is(err, service.ErrNotCheckedIn),
		errors.Is(err, service.ErrRetentionNotElapsed),
		errors.Is(err, service.ErrNotProcessed),
		errors.Is(err, service.ErrNotBilled),
		errors.Is(err, service.ErrDuplicateBooking),
		errors.Is(err, service.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidDiscount):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type billView struct {
	Name       string  `json:"name"`
	AmountDue  float64 `json:"amount_due"`
	BilledDate string  `json:"billed_date,omitempty"`
}

type roomView struct {
	Type      string `json:"type"`
	Adults    int    `json:"adults"`
	Children  int    `json:"children"`
	Breakfast bool   `json:"breakfast"`
}

type reservationView struct {
	Number       int64      `json:"number"`
	Name         string     `json:"name"`
	Type         string     `json:"type"`
	CheckinDate  string     `json:"checkin_date"`
	CheckoutDate string     `json:"checkout_date"`
	Nights       int        `json:"nights"`
	People       int        `json:"people"`
	Rooms        []roomView `json:"rooms"`
	TotalCost    billView   `json:"total_cost"`
	Deposit      billView   `json:"deposit"`
}

type stayView struct {
	Reservation reservationView `json:"reservation"`
	CheckedIn   bool            `json:"checked_in"`
	StayStart   string          `json:"stay_start"`
	StayEnd     string          `json:"stay_end"`
	TotalIncome billView        `json:"total_income"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.DateLayout)
}

func newBillView(b models.Bill) billView {
	return billView{Name: b.Name, AmountDue: b.AmountDue, BilledDate: formatDate(b.BilledDate)}
}

func newReservationView(r *models.Reservation) reservationView {
	v := reservationView{
		Number:       r.Number,
		Name:         r.Name,
		Type:         string(r.Type),
		CheckinDate:  formatDate(r.CheckinDate),
		CheckoutDate: formatDate(r.CheckoutDate()),
		Nights:       r.Nights,
		People:       r.People,
		Rooms:        make([]roomView, 0, len(r.Rooms)),
		TotalCost:    newBillView(r.TotalCost),
		Deposit:      newBillView(r.Deposit),
	}
	for _, rb := range r.Rooms {
		rv := roomView{Adults: rb.Adults, Children: rb.Children, Breakfast: rb.BreakfastIncluded}
		if rb.Room != nil {
			rv.Type = rb.Room.Type
		}
		v.Rooms = append(v.Rooms, rv)
	}
	return v
}

func newReservationViews(list []*models.Reservation) []reservationView {
	out := make([]reservationView, 0, len(list))
	for _, r := range list {
		out = append(out, newReservationView(r))
	}
	return out
}

func newStayView(st *models.HotelStay) stayView {
	return stayView{
		Reservation: newReservationView(st.Reservation),
		CheckedIn:   st.CheckedIn,
		StayStart:   formatDate(st.StayStart),
		StayEnd:     formatDate(st.StayEnd),
		TotalIncome: newBillView(st.TotalIncome),
	}
}
