// Package report exports the engine's collections and income figures as workbooks.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"hotelbook/internal/models"
)

// Source is the read-only view of the engine the reports are built from.
type Source interface {
	Reservations(hotel string) ([]*models.Reservation, error)
	Cancellations(hotel string) ([]*models.Reservation, error)
	Stays(hotel string) ([]*models.HotelStay, error)
}

var reservationColumns = []string{
	"Number", "Name", "Type", "Checkin", "Checkout", "Nights", "People", "Rooms",
	"Total", "Total billed", "Deposit", "Deposit billed",
}

type Exporter struct {
	source    Source
	newWriter func() ExcelWriter
	logger    *zerolog.Logger
}

func NewExporter(source Source, newWriter func() ExcelWriter, logger *zerolog.Logger) *Exporter {
	if newWriter == nil {
		newWriter = NewExcelizeWriter
	}
	l := logger.With().Str("component", "report").Logger()
	return &Exporter{source: source, newWriter: newWriter, logger: &l}
}

// Income analyses the hotel's stays over [from, to).
func (e *Exporter) Income(hotel string, from, to time.Time) (*Analysis, error) {
	stays, err := e.source.Stays(hotel)
	if err != nil {
		return nil, err
	}
	return Analyze(hotel, stays, from, to), nil
}

// WriteWorkbook writes the hotel's reservations, cancellations, stays and the
// income analysis for [from, to) as one workbook.
func (e *Exporter) WriteWorkbook(hotel string, from, to time.Time, out io.Writer) error {
	w, err := e.build(hotel, from, to)
	if err != nil {
		return err
	}
	defer w.Close()
	return w.Save(out)
}

// SaveWorkbook is WriteWorkbook into a file.
func (e *Exporter) SaveWorkbook(hotel string, from, to time.Time, path string) error {
	w, err := e.build(hotel, from, to)
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.SaveToFile(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	e.logger.Info().Str("hotel", hotel).Str("path", path).Msg("workbook saved")
	return nil
}

func (e *Exporter) build(hotel string, from, to time.Time) (ExcelWriter, error) {
	reservations, err := e.source.Reservations(hotel)
	if err != nil {
		return nil, err
	}
	cancellations, err := e.source.Cancellations(hotel)
	if err != nil {
		return nil, err
	}
	stays, err := e.source.Stays(hotel)
	if err != nil {
		return nil, err
	}

	w := e.newWriter()
	steps := []func() error{
		func() error { return writeReservations(w, "Reservations", reservations) },
		func() error { return writeReservations(w, "Cancellations", cancellations) },
		func() error { return writeStays(w, stays) },
		func() error { return writeIncome(w, Analyze(hotel, stays, from, to)) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	return w, nil
}

func dateCell(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.DateLayout)
}

func roomList(r *models.Reservation) string {
	types := make([]string, 0, len(r.Rooms))
	for _, rb := range r.Rooms {
		if rb.Room == nil {
			continue
		}
		entry := fmt.Sprintf("%s %d+%d", rb.Room.Type, rb.Adults, rb.Children)
		if rb.BreakfastIncluded {
			entry += " BB"
		}
		types = append(types, entry)
	}
	return strings.Join(types, ", ")
}

func reservationRow(r *models.Reservation) []interface{} {
	return []interface{}{
		r.Number, r.Name, string(r.Type),
		dateCell(r.CheckinDate), dateCell(r.CheckoutDate()),
		r.Nights, r.People, roomList(r),
		r.TotalCost.AmountDue, dateCell(r.TotalCost.BilledDate),
		r.Deposit.AmountDue, dateCell(r.Deposit.BilledDate),
	}
}

func writeReservations(w ExcelWriter, sheet string, list []*models.Reservation) error {
	if err := w.AddSheet(sheet); err != nil {
		return err
	}
	if err := w.WriteHeader(reservationColumns); err != nil {
		return err
	}
	for _, r := range list {
		if err := w.WriteRow(reservationRow(r)); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, r.Number, err)
		}
	}
	return nil
}

func writeStays(w ExcelWriter, stays []*models.HotelStay) error {
	if err := w.AddSheet("Stays"); err != nil {
		return err
	}
	columns := append(append([]string(nil), reservationColumns...), "Checked in", "Stay start", "Stay end", "Income")
	if err := w.WriteHeader(columns); err != nil {
		return err
	}
	for _, st := range stays {
		row := append(reservationRow(st.Reservation), st.CheckedIn, dateCell(st.StayStart), dateCell(st.StayEnd), st.TotalIncome.AmountDue)
		if err := w.WriteRow(row); err != nil {
			return fmt.Errorf("write stay row %d: %w", st.Reservation.Number, err)
		}
	}
	return nil
}

func writeIncome(w ExcelWriter, a *Analysis) error {
	if err := w.AddSheet("Income"); err != nil {
		return err
	}

	header := []string{"Room type"}
	for i := 0; i < a.Days(); i++ {
		header = append(header, a.From.AddDate(0, 0, i).Format(models.DateLayout))
	}
	header = append(header, "Room nights", "Average per night", "Total")
	if err := w.WriteHeader(header); err != nil {
		return err
	}

	for _, r := range a.Rooms {
		row := []interface{}{r.RoomType}
		for _, v := range r.Income {
			row = append(row, v)
		}
		row = append(row, r.TotalRoomNights(), r.AverageIncome(), r.TotalIncome())
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}

	total := make([]interface{}, len(header))
	total[0] = "Total"
	total[len(total)-1] = a.TotalIncome()
	return w.WriteRow(total)
}

// GenerateFilename names the monthly workbook of a hotel, e.g. "Harbour_View_2026-03.xlsx".
func GenerateFilename(hotel string, month time.Time) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':':
			return '_'
		}
		return r
	}, hotel)
	return fmt.Sprintf("%s_%s.xlsx", name, month.Format("2006-01"))
}
