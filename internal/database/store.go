package database

import (
	"context"
	"database/sql"
	"fmt"

	"hotelbook/internal/models"
)

const insertRecord = `INSERT INTO reservation_records (
	collection, hotel, number, position, name, type, checkin_date, nights, people, rooms,
	total_amount, total_billed, deposit_amount, deposit_billed,
	checked_in, stay_start, stay_end, income_amount, income_billed
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type stayColumns struct {
	checkedIn    sql.NullBool
	stayStart    sql.NullString
	stayEnd      sql.NullString
	incomeAmount sql.NullFloat64
	incomeBilled sql.NullString
}

// SaveReservations replaces the stored reservations or cancellations of a hotel.
func (db *DB) SaveReservations(ctx context.Context, kind models.Collection, hotel string, list []*models.Reservation) error {
	if kind == models.CollectionStays {
		return fmt.Errorf("stays are saved with SaveStays")
	}
	return db.replace(ctx, kind, hotel, len(list), func(i int) (*models.Reservation, stayColumns) {
		return list[i], stayColumns{}
	})
}

// SaveStays replaces the stored stays of a hotel.
func (db *DB) SaveStays(ctx context.Context, hotel string, stays []*models.HotelStay) error {
	return db.replace(ctx, models.CollectionStays, hotel, len(stays), func(i int) (*models.Reservation, stayColumns) {
		st := stays[i]
		return st.Reservation, stayColumns{
			checkedIn:    sql.NullBool{Bool: st.CheckedIn, Valid: true},
			stayStart:    formatDate(st.StayStart),
			stayEnd:      formatDate(st.StayEnd),
			incomeAmount: sql.NullFloat64{Float64: st.TotalIncome.AmountDue, Valid: true},
			incomeBilled: formatDate(st.TotalIncome.BilledDate),
		}
	})
}

func (db *DB) replace(ctx context.Context, kind models.Collection, hotel string, n int, row func(int) (*models.Reservation, stayColumns)) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reservation_records WHERE collection = ? AND hotel = ?`, string(kind), hotel); err != nil {
		return fmt.Errorf("clear %s of %s: %w", kind, hotel, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertRecord)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		r, stay := row(i)
		rooms, err := encodeRooms(r.Rooms)
		if err != nil {
			return fmt.Errorf("encode rooms of %d: %w", r.Number, err)
		}
		_, err = stmt.ExecContext(ctx,
			string(kind), hotel, r.Number, i, r.Name, string(r.Type),
			r.CheckinDate.Format(models.DateLayout), r.Nights, r.People, rooms,
			r.TotalCost.AmountDue, formatDate(r.TotalCost.BilledDate),
			r.Deposit.AmountDue, formatDate(r.Deposit.BilledDate),
			stay.checkedIn, stay.stayStart, stay.stayEnd, stay.incomeAmount, stay.incomeBilled,
		)
		if err != nil {
			return fmt.Errorf("insert %s %d: %w", kind, r.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s of %s: %w", kind, hotel, err)
	}
	db.logger.Debug().Str("collection", string(kind)).Str("hotel", hotel).Int("rows", n).Msg("collection saved")
	return nil
}

// Load reads every collection back. A stay shares its reservation with the
// active reservation of the same number when there is one.
func (db *DB) Load(ctx context.Context) (*models.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT collection, hotel, number, name, type, checkin_date, nights, people, rooms,
			total_amount, total_billed, deposit_amount, deposit_billed,
			checked_in, stay_start, stay_end, income_amount, income_billed
		FROM reservation_records
		ORDER BY CASE collection WHEN 'reservations' THEN 0 WHEN 'cancellations' THEN 1 ELSE 2 END, hotel, position`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	snap := models.NewSnapshot()
	active := make(map[string]map[int64]*models.Reservation)

	for rows.Next() {
		var (
			collection, hotel, typ, checkin, rooms string
			totalBilled, depositBilled             sql.NullString
			stay                                   stayColumns
			r                                      models.Reservation
		)
		err := rows.Scan(&collection, &hotel, &r.Number, &r.Name, &typ, &checkin, &r.Nights, &r.People, &rooms,
			&r.TotalCost.AmountDue, &totalBilled, &r.Deposit.AmountDue, &depositBilled,
			&stay.checkedIn, &stay.stayStart, &stay.stayEnd, &stay.incomeAmount, &stay.incomeBilled)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		rec, err := buildReservation(&r, typ, checkin, rooms, totalBilled, depositBilled)
		if err != nil {
			return nil, fmt.Errorf("record %s/%s/%d: %w", collection, hotel, r.Number, err)
		}

		switch models.Collection(collection) {
		case models.CollectionReservations:
			snap.Reservations[hotel] = append(snap.Reservations[hotel], rec)
			if active[hotel] == nil {
				active[hotel] = make(map[int64]*models.Reservation)
			}
			active[hotel][rec.Number] = rec
		case models.CollectionCancellations:
			snap.Cancellations[hotel] = append(snap.Cancellations[hotel], rec)
		case models.CollectionStays:
			if shared, ok := active[hotel][rec.Number]; ok {
				rec = shared
			}
			st, err := buildStay(rec, stay)
			if err != nil {
				return nil, fmt.Errorf("stay %s/%d: %w", hotel, rec.Number, err)
			}
			snap.Stays[hotel] = append(snap.Stays[hotel], st)
		default:
			db.logger.Warn().Str("collection", collection).Msg("unknown collection in store, skipped")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

func buildReservation(r *models.Reservation, typ, checkin, rooms string, totalBilled, depositBilled sql.NullString) (*models.Reservation, error) {
	var err error
	if r.Type, err = models.ParseReservationType(typ); err != nil {
		return nil, err
	}
	if r.CheckinDate, err = models.ParseDate(checkin); err != nil {
		return nil, err
	}
	if r.Rooms, err = decodeRooms(rooms); err != nil {
		return nil, err
	}
	r.TotalCost.Name = models.BillTotalCost
	if r.TotalCost.BilledDate, err = parseDate(totalBilled); err != nil {
		return nil, err
	}
	r.Deposit.Name = models.BillDeposit
	if r.Deposit.BilledDate, err = parseDate(depositBilled); err != nil {
		return nil, err
	}
	return r, nil
}

func buildStay(r *models.Reservation, cols stayColumns) (*models.HotelStay, error) {
	st := &models.HotelStay{
		Reservation: r,
		CheckedIn:   cols.checkedIn.Bool,
		TotalIncome: models.Bill{Name: models.BillTotalCost, AmountDue: cols.incomeAmount.Float64},
	}
	var err error
	if st.StayStart, err = parseDate(cols.stayStart); err != nil {
		return nil, err
	}
	if st.StayEnd, err = parseDate(cols.stayEnd); err != nil {
		return nil, err
	}
	if st.TotalIncome.BilledDate, err = parseDate(cols.incomeBilled); err != nil {
		return nil, err
	}
	return st, nil
}
