package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hotelbook/internal/models"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB is the SQLite store of the reservation engine's collections.
type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

// NewDB opens the database and creates the schema if it is missing.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	l := logger.With().Str("component", "database").Logger()
	instance := &DB{DB: db, path: path, logger: &l}

	if err := instance.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	l.Info().Str("path", path).Msg("Database initialized")
	return instance, nil
}

// Path is the file the database lives in.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) createTables() error {
	queries := []string{
		// One row per reservation and collection. Stay columns are only set for collection 'stays'.
		`CREATE TABLE IF NOT EXISTS reservation_records (
			collection TEXT NOT NULL,
			hotel TEXT NOT NULL,
			number INTEGER NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			checkin_date TEXT NOT NULL,
			nights INTEGER NOT NULL,
			people INTEGER NOT NULL,
			rooms TEXT NOT NULL,
			total_amount REAL NOT NULL DEFAULT 0,
			total_billed TEXT,
			deposit_amount REAL NOT NULL DEFAULT 0,
			deposit_billed TEXT,
			checked_in BOOLEAN,
			stay_start TEXT,
			stay_end TEXT,
			income_amount REAL,
			income_billed TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (collection, hotel, number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reservation_records_order ON reservation_records(collection, hotel, position)`,
		`CREATE INDEX IF NOT EXISTS idx_reservation_records_checkin ON reservation_records(hotel, checkin_date)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

type storedRoom struct {
	Type      string     `json:"type"`
	Occupancy [4]int     `json:"occupancy"`
	Rates     [7]float64 `json:"rates"`
	Adults    int        `json:"adults"`
	Children  int        `json:"children"`
	Breakfast bool       `json:"breakfast"`
}

func encodeRooms(rooms []models.RoomBooking) (string, error) {
	out := make([]storedRoom, 0, len(rooms))
	for _, rb := range rooms {
		sr := storedRoom{Adults: rb.Adults, Children: rb.Children, Breakfast: rb.BreakfastIncluded}
		if rb.Room != nil {
			sr.Type = rb.Room.Type
			sr.Occupancy = rb.Room.Occupancy
			sr.Rates = rb.Room.Rates
		}
		out = append(out, sr)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeRooms(data string) ([]models.RoomBooking, error) {
	var stored []storedRoom
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, err
	}
	rooms := make([]models.RoomBooking, 0, len(stored))
	for _, sr := range stored {
		rooms = append(rooms, models.RoomBooking{
			Room:              &models.Room{Type: sr.Type, Occupancy: sr.Occupancy, Rates: sr.Rates},
			Adults:            sr.Adults,
			Children:          sr.Children,
			BreakfastIncluded: sr.Breakfast,
		})
	}
	return rooms, nil
}

func formatDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(models.DateLayout), Valid: true}
}

func parseDate(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return models.ParseDate(s.String)
}
