// Package housekeeping runs the periodic maintenance of the reservation engine:
// retention purges and the monthly workbook export. No-shows are only swept by
// check-in, never from here.
package housekeeping

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hotelbook/internal/config"
	"hotelbook/internal/models"
	"hotelbook/internal/report"
)

// Engine is the part of the reservation service housekeeping drives.
type Engine interface {
	Hotels() []string
	PurgeCandidates(hotel string) ([]*models.Reservation, error)
	Remove(ctx context.Context, hotel string, number int64) error
	StayPurgeCandidates(hotel string) ([]*models.HotelStay, error)
	RemoveHotelStay(ctx context.Context, hotel string, number int64) error
}

// Workbooks saves a hotel's workbook for [from, to).
type Workbooks interface {
	SaveWorkbook(hotel string, from, to time.Time, path string) error
}

// Result counts what one run did.
type Result struct {
	Purged      int
	StaysPurged int
	Exported    []string
}

type Service struct {
	cfg       config.HousekeepingConfig
	interval  time.Duration
	engine    Engine
	workbooks Workbooks
	clock     func() time.Time
	logger    *zerolog.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewService(cfg config.HousekeepingConfig, interval time.Duration, engine Engine, workbooks Workbooks, logger *zerolog.Logger) *Service {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	l := logger.With().Str("component", "housekeeping").Logger()
	return &Service{
		cfg:       cfg,
		interval:  interval,
		engine:    engine,
		workbooks: workbooks,
		clock:     time.Now,
		logger:    &l,
		stopCh:    make(chan struct{}),
	}
}

// WithClock replaces the wall clock used to pick the export month.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

func (s *Service) Start() {
	s.mu.Lock()
	if s.running || !s.cfg.Enabled {
		s.mu.Unlock()
		if !s.cfg.Enabled {
			s.logger.Info().Msg("Housekeeping is disabled")
		}
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop()

	s.logger.Info().Dur("interval", s.interval).Str("export_dir", s.cfg.ExportDir).Msg("Housekeeping started")
}

func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info().Msg("Housekeeping stopped")
}

func (s *Service) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runLogged()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runLogged()
		}
	}
}

func (s *Service) runLogged() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	res, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Housekeeping run finished with errors")
	}
	s.logger.Info().
		Int("purged", res.Purged).
		Int("stays_purged", res.StaysPurged).
		Int("exported", len(res.Exported)).
		Msg("Housekeeping run completed")
}

// RunOnce performs one pass over every hotel. Errors are collected and the
// pass carries on with the next step.
func (s *Service) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	var errs []error

	for _, hotel := range s.engine.Hotels() {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		n, err := s.purgeReservations(ctx, hotel)
		res.Purged += n
		errs = append(errs, err)

		n, err = s.purgeStays(ctx, hotel)
		res.StaysPurged += n
		errs = append(errs, err)

		path, err := s.exportPreviousMonth(hotel)
		if path != "" {
			res.Exported = append(res.Exported, path)
		}
		errs = append(errs, err)
	}
	return res, errors.Join(errs...)
}

func (s *Service) purgeReservations(ctx context.Context, hotel string) (int, error) {
	candidates, err := s.engine.PurgeCandidates(hotel)
	if err != nil {
		return 0, fmt.Errorf("purge candidates %s: %w", hotel, err)
	}
	removed := 0
	for _, r := range candidates {
		if err := s.engine.Remove(ctx, hotel, r.Number); err != nil {
			s.logger.Warn().Err(err).Str("hotel", hotel).Int64("number", r.Number).Msg("Failed to purge reservation")
			continue
		}
		removed++
	}
	return removed, nil
}

func (s *Service) purgeStays(ctx context.Context, hotel string) (int, error) {
	candidates, err := s.engine.StayPurgeCandidates(hotel)
	if err != nil {
		return 0, fmt.Errorf("stay purge candidates %s: %w", hotel, err)
	}
	removed := 0
	for _, st := range candidates {
		if err := s.engine.RemoveHotelStay(ctx, hotel, st.Reservation.Number); err != nil {
			s.logger.Warn().Err(err).Str("hotel", hotel).Int64("number", st.Reservation.Number).Msg("Failed to purge stay")
			continue
		}
		removed++
	}
	return removed, nil
}

// exportPreviousMonth writes last month's workbook unless it already exists.
func (s *Service) exportPreviousMonth(hotel string) (string, error) {
	if s.workbooks == nil || s.cfg.ExportDir == "" {
		return "", nil
	}

	today := models.DateOf(s.clock())
	to := models.Day(today.Year(), today.Month(), 1)
	from := to.AddDate(0, -1, 0)

	path := filepath.Join(s.cfg.ExportDir, report.GenerateFilename(hotel, from))
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}
	if err := os.MkdirAll(s.cfg.ExportDir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	if err := s.workbooks.SaveWorkbook(hotel, from, to, path); err != nil {
		return "", fmt.Errorf("export %s: %w", hotel, err)
	}
	return path, nil
}
