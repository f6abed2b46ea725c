// Package api serves the reservation engine over JSON HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"hotelbook/internal/access"
	"hotelbook/internal/metrics"
	"hotelbook/internal/report"
	"hotelbook/internal/service"
)

const (
	apiKeyHeader    = "X-Api-Key"
	requestIDHeader = "X-Request-Id"
)

// Options configures the listener and the per-key rate limit. A zero
// RatePerSecond disables limiting.
type Options struct {
	Address       string
	RatePerSecond float64
	RateBurst     int
	ReadTimeout   time.Duration
}

type Server struct {
	srv     *http.Server
	engine  *service.ReservationService
	access  *access.Service
	reports *report.Exporter
	logger  *zerolog.Logger

	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(ctx context.Context, opts Options, engine *service.ReservationService, acc *access.Service, reports *report.Exporter, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "api").Logger()
	s := &Server{
		engine:   engine,
		access:   acc,
		reports:  reports,
		logger:   &l,
		burst:    opts.RateBurst,
		limiters: make(map[string]*rate.Limiter),
	}
	if opts.RatePerSecond > 0 {
		s.limit = rate.Limit(opts.RatePerSecond)
		if s.burst <= 0 {
			s.burst = 1
		}
	}

	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}

	mux := http.NewServeMux()
	s.addRoutes(mux)
	s.srv = &http.Server{
		Addr:              opts.Address,
		Handler:           mux,
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(ctxShutdown)
	}()

	s.logger.Info().Str("address", s.srv.Addr).Msg("API server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

func (s *Server) addRoutes(mux *http.ServeMux) {
	mux.Handle("GET /api/hotels", s.route("hotels", access.CanBook, s.handleHotels))
	mux.Handle("GET /api/hotels/{hotel}/availability", s.route("availability", access.CanBook, s.handleAvailability))

	mux.Handle("POST /api/hotels/{hotel}/reservations", s.route("create_reservation", access.CanBook, s.handleCreate))
	mux.Handle("GET /api/hotels/{hotel}/reservations", s.route("find_reservation", access.CanBook, s.handleFind))
	mux.Handle("GET /api/hotels/{hotel}/reservations/{number}", s.route("get_reservation", access.CanBook, s.handleGet))
	mux.Handle("POST /api/hotels/{hotel}/reservations/{number}/cancel", s.route("cancel", access.CanCancel, s.handleCancel))
	mux.Handle("POST /api/hotels/{hotel}/reservations/{number}/checkin", s.route("checkin", access.CanCheckIn, s.handleCheckIn))
	mux.Handle("POST /api/hotels/{hotel}/reservations/{number}/checkout", s.route("checkout", access.CanCheckIn, s.handleCheckOut))
	mux.Handle("POST /api/hotels/{hotel}/reservations/{number}/discount", s.route("discount", access.CanDiscount, s.handleDiscount))
	mux.Handle("DELETE /api/hotels/{hotel}/reservations/{number}", s.route("remove_reservation", access.CanPurge, s.handleRemove))

	mux.Handle("GET /api/hotels/{hotel}/arrivals", s.route("arrivals", access.CanCheckIn, s.handleOnDate(true)))
	mux.Handle("GET /api/hotels/{hotel}/departures", s.route("departures", access.CanCheckIn, s.handleOnDate(false)))
	mux.Handle("POST /api/hotels/{hotel}/no-shows", s.route("no_shows", access.CanCheckIn, s.handleSweep))

	mux.Handle("GET /api/hotels/{hotel}/stays/{number}", s.route("get_stay", access.CanCheckIn, s.handleGetStay))
	mux.Handle("DELETE /api/hotels/{hotel}/stays/{number}", s.route("remove_stay", access.CanPurge, s.handleRemoveStay))
	mux.Handle("GET /api/hotels/{hotel}/purge-candidates", s.route("purge_candidates", access.CanPurge, s.handlePurgeCandidates))

	mux.Handle("GET /api/hotels/{hotel}/income", s.route("income", access.CanAnalyze, s.handleIncome))
	mux.Handle("GET /api/hotels/{hotel}/report.xlsx", s.route("report", access.CanAnalyze, s.handleReport))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// route wraps a handler with request ids, panic recovery, authentication,
// rate limiting and request metrics.
func (s *Server) route(name string, c access.Capability, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		rec.Header().Set(requestIDHeader, requestID)

		defer func() {
			if p := recover(); p != nil {
				s.logger.Error().Interface("panic", p).Str("request_id", requestID).Str("route", name).Msg("handler panicked")
				writeError(rec, http.StatusInternalServerError, "internal error")
			}
			metrics.IncHTTP(name, rec.status)
			s.logger.Debug().
				Str("request_id", requestID).
				Str("route", name).
				Int("status", rec.status).
				Dur("took", time.Since(start)).
				Msg("request served")
		}()

		key := r.Header.Get(apiKeyHeader)
		role, err := s.access.Require(key, c)
		if err != nil {
			status := http.StatusForbidden
			if role == "" {
				status = http.StatusUnauthorized
			}
			writeError(rec, status, err.Error())
			return
		}
		if !s.allow(key) {
			writeError(rec, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next(rec, r)
	})
}

func (s *Server) allow(key string) bool {
	if s.limit == 0 {
		return true
	}
	s.mu.Lock()
	lim, ok := s.limiters[key]
	if !ok {
		lim = rate.NewLimiter(s.limit, s.burst)
		s.limiters[key] = lim
	}
	s.mu.Unlock()
	return lim.Allow()
}
