package housekeeping

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hotelbook/internal/catalog"
	"hotelbook/internal/config"
	"hotelbook/internal/models"
	"hotelbook/internal/sequence"
	"hotelbook/internal/service"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Hotels() []string {
	return m.Called().Get(0).([]string)
}

func (m *mockEngine) PurgeCandidates(hotel string) ([]*models.Reservation, error) {
	args := m.Called(hotel)
	list, _ := args.Get(0).([]*models.Reservation)
	return list, args.Error(1)
}

func (m *mockEngine) Remove(ctx context.Context, hotel string, number int64) error {
	return m.Called(ctx, hotel, number).Error(0)
}

func (m *mockEngine) StayPurgeCandidates(hotel string) ([]*models.HotelStay, error) {
	args := m.Called(hotel)
	list, _ := args.Get(0).([]*models.HotelStay)
	return list, args.Error(1)
}

func (m *mockEngine) RemoveHotelStay(ctx context.Context, hotel string, number int64) error {
	return m.Called(ctx, hotel, number).Error(0)
}

type fakeWorkbooks struct {
	calls []string
	from  time.Time
	to    time.Time
}

func (f *fakeWorkbooks) SaveWorkbook(hotel string, from, to time.Time, path string) error {
	f.calls = append(f.calls, hotel)
	f.from, f.to = from, to
	return os.WriteFile(path, []byte("xlsx"), 0o644)
}

func newTestService(t *testing.T, engine Engine, wb Workbooks) (*Service, string) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	dir := filepath.Join(t.TempDir(), "exports")
	cfg := config.HousekeepingConfig{Enabled: true, ExportDir: dir}
	svc := NewService(cfg, time.Hour, engine, wb, &logger).
		WithClock(func() time.Time { return time.Date(2026, time.April, 3, 9, 0, 0, 0, time.UTC) })
	return svc, dir
}

func TestRunOnce(t *testing.T) {
	engine := new(mockEngine)
	ctx := context.Background()

	engine.On("Hotels").Return([]string{"Harbour"})
	engine.On("PurgeCandidates", "Harbour").Return([]*models.Reservation{{Number: 1}, {Number: 2}}, nil)
	engine.On("Remove", ctx, "Harbour", int64(1)).Return(nil)
	engine.On("Remove", ctx, "Harbour", int64(2)).Return(errors.New("retention period has not elapsed"))
	stay := models.NewHotelStay(&models.Reservation{Number: 5, CheckinDate: models.Day(2018, time.May, 1), Nights: 1})
	engine.On("StayPurgeCandidates", "Harbour").Return([]*models.HotelStay{stay}, nil)
	engine.On("RemoveHotelStay", ctx, "Harbour", int64(5)).Return(nil)

	wb := &fakeWorkbooks{}
	svc, dir := newTestService(t, engine, wb)

	res, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Purged)
	assert.Equal(t, 1, res.StaysPurged)
	require.Len(t, res.Exported, 1)
	assert.Equal(t, filepath.Join(dir, "Harbour_2026-03.xlsx"), res.Exported[0])
	assert.Equal(t, models.Day(2026, time.March, 1), wb.from)
	assert.Equal(t, models.Day(2026, time.April, 1), wb.to)
	engine.AssertExpectations(t)

	// The month is exported once.
	res, err = svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Exported)
	assert.Len(t, wb.calls, 1)
}

func TestRunOnce_CollectsErrors(t *testing.T) {
	engine := new(mockEngine)
	ctx := context.Background()

	engine.On("Hotels").Return([]string{"Harbour", "Old Town"})
	engine.On("PurgeCandidates", "Harbour").Return(nil, errors.New("hotel not found"))
	engine.On("PurgeCandidates", "Old Town").Return(nil, nil)
	engine.On("StayPurgeCandidates", mock.Anything).Return(nil, nil)

	svc, _ := newTestService(t, engine, nil)

	res, err := svc.RunOnce(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "purge candidates Harbour")
	assert.Zero(t, res.Purged)
	engine.AssertCalled(t, "PurgeCandidates", "Old Town")
}

func TestStartStop(t *testing.T) {
	engine := new(mockEngine)
	engine.On("Hotels").Return([]string{})

	svc, _ := newTestService(t, engine, nil)
	svc.Start()
	svc.Start()
	svc.Stop()
	svc.Stop()

	logger := zerolog.New(io.Discard)
	disabled := NewService(config.HousekeepingConfig{}, 0, engine, nil, &logger)
	disabled.Start()
	disabled.Stop()
	assert.Equal(t, 24*time.Hour, disabled.interval)
}

func TestRunOnce_KeepsTodaysArrivals(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	cat := catalog.New()
	cat.Add("Harbour", &models.Room{Type: "single", Occupancy: [4]int{1, 0, 1, 0}, Rates: [7]float64{75, 75, 75, 75, 75, 75, 75}}, 2)
	opts := service.DefaultOptions()
	opts.Clock = func() time.Time { return now }
	engine := service.NewReservationService(cat, nil, sequence.NewMemory(), nil, opts, &logger)

	r, err := engine.CreateReservation(ctx, "Harbour", service.Draft{
		Name:        "Ada",
		Type:        models.ReservationStandard,
		CheckinDate: models.DateOf(now),
		Nights:      1,
		People:      1,
		Rooms:       []service.RoomRequest{{Type: "single", Adults: 1}},
	})
	require.NoError(t, err)

	svc := NewService(config.HousekeepingConfig{Enabled: true}, time.Hour, engine, nil, &logger).
		WithClock(func() time.Time { return now })
	_, err = svc.RunOnce(ctx)
	require.NoError(t, err)

	cancelled, err := engine.Cancellations("Harbour")
	require.NoError(t, err)
	assert.Empty(t, cancelled)

	stay, err := engine.CheckIn(ctx, "Harbour", r.Number)
	require.NoError(t, err)
	assert.True(t, stay.CheckedIn)
}
