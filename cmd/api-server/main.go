package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hackgods/clinic-booking/internal/api"
	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/auth"
	"github.com/hackgods/clinic-booking/internal/availability"
	"github.com/hackgods/clinic-booking/internal/booking"
	"github.com/hackgods/clinic-booking/internal/config"
	"github.com/hackgods/clinic-booking/internal/db"
	"github.com/hackgods/clinic-booking/internal/doctor"
	"github.com/hackgods/clinic-booking/internal/logging"
	"github.com/hackgods/clinic-booking/internal/metrics"
	"github.com/hackgods/clinic-booking/internal/receipt"
	redisclient "github.com/hackgods/clinic-booking/internal/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("dev", "info")
		bootLog.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New(cfg.Env, cfg.LogLevel).With().Str("service", "api-server").Logger()
	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate {
		if err := db.MigrateUp(cfg.PostgresDSN); err != nil {
			logger.Fatal().Err(err).Msg("migrations failed")
		}
		logger.Info().Msg("schema up to date")
	}

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PoolOptions())
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.Connect(rootCtx, cfg.RedisOptions())
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	m := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)

	// Ledger
	slotLocker := redisclient.NewRedisLocker(rdb, cfg.LockTTL, 0)
	queue := redisclient.NewCounter(rdb, redisclient.QueueNumberKey)
	ledger := appointment.NewService(appointment.NewPgRepository(pgPool), queue, slotLocker, logger)
	if err := ledger.SyncQueue(rootCtx); err != nil {
		logger.Fatal().Err(err).Msg("queue counter could not be reconciled with the ledger")
	}

	// Catalog
	generator := availability.NewGenerator(availability.DefaultCatalog)
	doctors := doctor.NewService(doctor.NewPgRepository(pgPool), generator, ledger, logger)

	// Receipts
	font, err := receipt.LoadFont(cfg.ReceiptFontPath)
	if err != nil {
		logger.Warn().Err(err).Str("font", cfg.ReceiptFontPath).Msg("receipt font unreadable, using the built-in face")
		font = receipt.DefaultFont()
	}
	receipts := receipt.NewGenerator(receipt.NewVisualRenderer(font), receipt.NewTextRenderer(), m, logger)

	// Booking workflow; session writes wait briefly for a concurrent tab
	sessionLocker := redisclient.NewRedisLocker(rdb, cfg.LockTTL, 2*time.Second)
	store := booking.NewRedisStore(rdb, cfg.DraftTTL, cfg.ReceiptTTL, logger)
	workflow := booking.NewWorkflow(store, sessionLocker, ledger, doctors, receipts, m, cfg.FinishRedirectDelay, logger)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	users := auth.NewService(auth.NewPgRepository(pgPool), tokens, logger)

	router := api.NewRouter(api.RouterConfig{
		Doctors: doctors,
		Ledger:  ledger,
		Booking: workflow,
		Auth:    users,
		Tokens:  tokens,
		Health:  api.NewHealthHandler(pgPool, api.RedisPinger(rdb), cfg.Env, cfg.Version),
		Metrics: m,
		Logger:  logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	<-rootCtx.Done()
	logger.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
