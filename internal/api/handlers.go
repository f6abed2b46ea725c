package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"hotelbook/internal/metrics"
	"hotelbook/internal/models"
	"hotelbook/internal/report"
	"hotelbook/internal/service"
)

// MaxRangeDays caps the period of availability and report queries.
const MaxRangeDays = 366

// CreateReservationRequest is the body of POST /api/hotels/{hotel}/reservations.
type CreateReservationRequest struct {
	Name        string                `json:"name"`
	Type        string                `json:"type"`
	CheckinDate string                `json:"checkin_date"` // YYYY-MM-DD
	Nights      int                   `json:"nights"`
	People      int                   `json:"people"`
	Rooms       []service.RoomRequest `json:"rooms"`
}

type DiscountRequest struct {
	Value float64 `json:"value"`
}

func decodeBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func pathNumber(r *http.Request) (int64, error) {
	n, err := strconv.ParseInt(r.PathValue("number"), 10, 64)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid reservation number")
	}
	return n, nil
}

func queryDate(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	d, err := models.ParseDate(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s format; expected YYYY-MM-DD", name)
	}
	return d, nil
}

// queryRange reads from and to as a half-open period.
func queryRange(r *http.Request) (from, to time.Time, err error) {
	if from, err = queryDate(r, "from"); err != nil {
		return
	}
	if to, err = queryDate(r, "to"); err != nil {
		return
	}
	if !from.Before(to) {
		return from, to, errors.New("from must be before to")
	}
	if to.Sub(from).Hours()/24 > MaxRangeDays {
		return from, to, fmt.Errorf("date range exceeds maximum of %d days", MaxRangeDays)
	}
	return from, to, nil
}

func (s *Server) handleHotels(w http.ResponseWriter, _ *http.Request) {
	type hotelView struct {
		Name  string   `json:"name"`
		Rooms []string `json:"rooms"`
	}
	out := make([]hotelView, 0)
	for _, name := range s.engine.Hotels() {
		types, _ := s.engine.Catalog().RoomTypes(name)
		out = append(out, hotelView{Name: name, Rooms: types})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hotel := r.PathValue("hotel")

	if roomType := r.URL.Query().Get("room"); roomType != "" {
		n, err := s.engine.AvailableRoom(hotel, roomType, from, to)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"from": formatDate(from), "to": formatDate(to),
			"rooms": map[string]int{roomType: n},
		})
		return
	}

	avail, err := s.engine.Available(hotel, from, to)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"from": formatDate(from), "to": formatDate(to), "rooms": avail,
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	checkin, err := models.ParseDate(req.CheckinDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid checkin_date format; expected YYYY-MM-DD")
		return
	}

	hotel := r.PathValue("hotel")
	only, err := s.engine.OnlyBookingOnCheckInDate(hotel, req.Name, checkin)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if !only {
		writeEngineError(w, service.ErrDuplicateBooking)
		return
	}

	res, err := s.engine.CreateReservation(r.Context(), hotel, service.Draft{
		Name:        req.Name,
		Type:        models.ReservationType(req.Type),
		CheckinDate: checkin,
		Nights:      req.Nights,
		People:      req.People,
		Rooms:       req.Rooms,
	})
	if err != nil {
		if errors.Is(err, service.ErrCapacityExceeded) {
			metrics.IncCapacityRejection(hotel)
		}
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newReservationView(res))
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	date, err := queryDate(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.engine.ReservationByNameAndDate(r.PathValue("hotel"), name, date)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReservationView(res))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	number, err := pathNumber(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.engine.ReservationByNumber(r.PathValue("hotel"), number)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReservationView(res))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	number, err := pathNumber(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	refunded, err := s.engine.Cancel(r.Context(), r.PathValue("hotel"), number)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"number": number, "refunded": refunded})
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	number, err := pathNumber(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stay, err := s.engine.CheckIn(r.Context(), r.PathValue("hotel"), number)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStayView(stay))
}

func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	number, err := pathNumber(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stay, err := s.engine.CheckOut(r.Context(), r.PathValue("hotel"), number)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStayView(stay))
}

func (s *Server) handleDiscount(w http.ResponseWriter, r *http.Request) {
	number, err := pathNumber(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req DiscountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.engine.ApplyDiscount(r.Context(), r.PathValue("hotel"), number, req.Value)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReservationView(res))
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	number, err := pathNumber(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.engine.Remove(r.Context(), r.PathValue("hotel"), number); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOnDate(checkin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := queryDate(r, "date")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		list, err := s.engine.ReservationsOnDate(r.PathValue("hotel"), date, checkin)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newReservationViews(list))
	}
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	swept, err := s.engine.SweepNoShows(r.Context(), r.PathValue("hotel"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReservationViews(swept))
}

func (s *Server) handleGetStay(w http.ResponseWriter, r *http.Request) {
	number, err := pathNumber(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stay, err := s.engine.HotelStay(r.PathValue("hotel"), number)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStayView(stay))
}

func (s *Server) handleRemoveStay(w http.ResponseWriter, r *http.Request) {
	number, err := pathNumber(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.engine.RemoveHotelStay(r.Context(), r.PathValue("hotel"), number); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePurgeCandidates(w http.ResponseWriter, r *http.Request) {
	hotel := r.PathValue("hotel")
	reservations, err := s.engine.PurgeCandidates(hotel)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	stays, err := s.engine.StayPurgeCandidates(hotel)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	stayViews := make([]stayView, 0, len(stays))
	for _, st := range stays {
		stayViews = append(stayViews, newStayView(st))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reservations": newReservationViews(reservations),
		"stays":        stayViews,
	})
}

func (s *Server) handleIncome(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := s.reports.Income(r.PathValue("hotel"), from, to)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	type roomIncome struct {
		Type       string    `json:"type"`
		Income     []float64 `json:"income"`
		RoomNights int       `json:"room_nights"`
		Average    float64   `json:"average"`
		Total      float64   `json:"total"`
	}
	rooms := make([]roomIncome, 0, len(a.Rooms))
	for _, rs := range a.Rooms {
		rooms = append(rooms, roomIncome{
			Type:       rs.RoomType,
			Income:     rs.Income,
			RoomNights: rs.TotalRoomNights(),
			Average:    rs.AverageIncome(),
			Total:      rs.TotalIncome(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"hotel": a.Hotel, "from": formatDate(a.From), "to": formatDate(a.To),
		"rooms": rooms, "total": a.TotalIncome(),
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hotel := r.PathValue("hotel")
	if !s.engine.Catalog().HasHotel(hotel) {
		writeEngineError(w, service.ErrHotelNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.GenerateFilename(hotel, from)))
	if err := s.reports.WriteWorkbook(hotel, from, to, w); err != nil {
		s.logger.Error().Err(err).Str("hotel", hotel).Msg("failed to write workbook")
		writeError(w, http.StatusInternalServerError, "failed to build report")
	}
}
