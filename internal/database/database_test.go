package database

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelbook/internal/config"
	"hotelbook/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), "data", "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleReservation(number int64) *models.Reservation {
	room := &models.Room{Type: "double", Occupancy: [4]int{1, 0, 2, 1}, Rates: [7]float64{70, 70, 70, 70, 90, 90, 80}}
	r := &models.Reservation{
		Number:      number,
		Name:        "Ada",
		Type:        models.ReservationAdvancePurchase,
		CheckinDate: models.Day(2026, time.March, 10),
		Nights:      2,
		People:      3,
		Rooms:       []models.RoomBooking{{Room: room, Adults: 2, Children: 1, BreakfastIncluded: true}},
	}
	r.Deposit = models.Bill{Name: models.BillDeposit, AmountDue: 75, BilledDate: models.Day(2026, time.March, 1)}
	r.TotalCost = models.Bill{Name: models.BillTotalCost, AmountDue: 291.5}
	return r
}

func TestStore_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	active := sampleReservation(1)
	cancelled := sampleReservation(2)
	cancelled.Type = models.ReservationStandard

	stay := models.NewHotelStay(active)
	stay.CheckedIn = false
	stay.TotalIncome.BilledDate = models.Day(2026, time.March, 12)

	require.NoError(t, db.SaveReservations(ctx, models.CollectionReservations, "Harbour", []*models.Reservation{active}))
	require.NoError(t, db.SaveReservations(ctx, models.CollectionCancellations, "Harbour", []*models.Reservation{cancelled}))
	require.NoError(t, db.SaveStays(ctx, "Harbour", []*models.HotelStay{stay}))

	snap, err := db.Load(ctx)
	require.NoError(t, err)

	require.Len(t, snap.Reservations["Harbour"], 1)
	got := snap.Reservations["Harbour"][0]
	assert.Equal(t, active, got)

	require.Len(t, snap.Cancellations["Harbour"], 1)
	assert.Equal(t, models.ReservationStandard, snap.Cancellations["Harbour"][0].Type)

	require.Len(t, snap.Stays["Harbour"], 1)
	gotStay := snap.Stays["Harbour"][0]
	assert.Same(t, got, gotStay.Reservation, "stay shares the active reservation")
	assert.False(t, gotStay.CheckedIn)
	assert.Equal(t, stay.StayStart, gotStay.StayStart)
	assert.Equal(t, stay.StayEnd, gotStay.StayEnd)
	assert.Equal(t, stay.TotalIncome, gotStay.TotalIncome)

	assert.Equal(t, int64(2), snap.MaxNumber())
}

func TestStore_SaveReplacesCollection(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first := []*models.Reservation{sampleReservation(1), sampleReservation(2), sampleReservation(3)}
	require.NoError(t, db.SaveReservations(ctx, models.CollectionReservations, "Harbour", first))
	require.NoError(t, db.SaveReservations(ctx, models.CollectionReservations, "Annex", first[:1]))
	require.NoError(t, db.SaveReservations(ctx, models.CollectionReservations, "Harbour", []*models.Reservation{first[2], first[0]}))

	snap, err := db.Load(ctx)
	require.NoError(t, err)

	harbour := snap.Reservations["Harbour"]
	require.Len(t, harbour, 2)
	assert.Equal(t, int64(3), harbour[0].Number, "list order is kept")
	assert.Equal(t, int64(1), harbour[1].Number)
	assert.Len(t, snap.Reservations["Annex"], 1)
}

func TestStore_StayWithoutActiveReservation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	stay := models.NewHotelStay(sampleReservation(9))
	require.NoError(t, db.SaveStays(ctx, "Harbour", []*models.HotelStay{stay}))

	snap, err := db.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Stays["Harbour"], 1)
	assert.True(t, snap.Stays["Harbour"][0].CheckedIn)
	assert.Equal(t, "double", snap.Stays["Harbour"][0].Reservation.Rooms[0].Room.Type)
}

func TestStore_RejectsStaysThroughSaveReservations(t *testing.T) {
	db := openTestDB(t)
	err := db.SaveReservations(context.Background(), models.CollectionStays, "Harbour", nil)
	assert.Error(t, err)
}

func TestBackupService(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.SaveReservations(ctx, models.CollectionReservations, "Harbour", []*models.Reservation{sampleReservation(1)}))

	dir := filepath.Join(t.TempDir(), "backups")
	logger := zerolog.New(io.Discard)
	svc := NewBackupService(db, config.BackupConfig{Enabled: true, StoragePath: dir, RetentionDays: 7}, time.Hour, &logger)

	path, err := svc.PerformBackup(ctx)
	require.NoError(t, err)
	assert.FileExists(t, path)

	restored, err := NewDB(path, &logger)
	require.NoError(t, err)
	defer restored.Close()
	snap, err := restored.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Reservations["Harbour"], 1)

	old := filepath.Join(dir, "backup_old.db")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o600))
	past := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(old, past, past))

	assert.Equal(t, 1, svc.CleanupOldBackups())
	assert.NoFileExists(t, old)
	assert.FileExists(t, path)
}
