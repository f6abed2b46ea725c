package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotelbook/internal/access"
	"hotelbook/internal/api"
	"hotelbook/internal/catalog"
	"hotelbook/internal/config"
	"hotelbook/internal/database"
	"hotelbook/internal/events"
	"hotelbook/internal/housekeeping"
	"hotelbook/internal/metrics"
	"hotelbook/internal/report"
	"hotelbook/internal/sequence"
	"hotelbook/internal/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("failed to load .env")
	}

	cfg, err := config.Load(os.Getenv("HOTELBOOK_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	hotelsCfg, err := config.LoadHotelsConfig(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Catalog.Path).Msg("failed to load hotels")
	}
	logger.Info().Str("catalog", hotelsCfg.String()).Msg("hotels loaded")
	cat := catalog.FromConfig(hotelsCfg)

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	var rdb *redis.Client
	var seq service.Sequence = sequence.NewMemory()
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		seq = sequence.NewRedis(rdb, cfg.Redis.SequenceKey)
	}

	bus := events.NewEventBus(&logger)
	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
	}
	metrics.Attach(bus)

	engine := service.NewReservationService(cat, db, seq, bus, service.OptionsFromConfig(cfg.Engine), &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to load reservations")
	}

	acc, err := access.NewService(cfg.Server.APIKeys, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid api keys")
	}
	exporter := report.NewExporter(engine, report.NewExcelizeWriter, &logger)

	backup := database.NewBackupService(db, cfg.Backup, cfg.BackupInterval(), &logger)
	go backup.Start(ctx)

	keeper := housekeeping.NewService(cfg.Housekeeping, cfg.HousekeepingInterval(), engine, exporter, &logger)
	keeper.Start()
	defer keeper.Stop()

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	server := api.New(ctx, api.Options{
		Address:       cfg.Server.Address,
		RatePerSecond: cfg.Server.RatePerSecond,
		RateBurst:     cfg.Server.RateBurst,
		ReadTimeout:   time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
	}, engine, acc, exporter, &logger)

	logger.Info().Strs("hotels", engine.Hotels()).Msg("hotelbook started")
	if err := server.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("api server stopped")
	}
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	serve(ctx, &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}, "health", logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serve(ctx, &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}, "metrics", logger)
}

func serve(ctx context.Context, srv *http.Server, name string, logger *zerolog.Logger) {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Str("server", name).Msg("server error")
	}
}
