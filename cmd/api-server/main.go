package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/selamhealth/clinic-scheduling/internal/api"
	"github.com/selamhealth/clinic-scheduling/internal/appointment"
	"github.com/selamhealth/clinic-scheduling/internal/audit"
	"github.com/selamhealth/clinic-scheduling/internal/closure"
	"github.com/selamhealth/clinic-scheduling/internal/config"
	"github.com/selamhealth/clinic-scheduling/internal/db"
	"github.com/selamhealth/clinic-scheduling/internal/logging"
	"github.com/selamhealth/clinic-scheduling/internal/notify"
	redisclient "github.com/selamhealth/clinic-scheduling/internal/redis"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init("clinic-scheduling", "dev")
		log.Fatal().Err(err).Msg("config load error")
	}

	logging.Init("clinic-scheduling", cfg.Env)
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	closureSvc := closure.NewService(closure.NewPgRepository(pgPool))

	var notifier notify.Notifier = notify.NewRedisNotifier(rdb)
	if cfg.Env == "dev" {
		notifier = notify.LogNotifier{}
	}

	apptSvc := appointment.NewService(
		appointment.NewPgRepository(pgPool),
		closureSvc,
		redisclient.NewRedisScheduleLocker(rdb, cfg.LockTTL),
		notifier,
		audit.NewPgRecorder(pgPool),
		cfg.Snapshot(),
	)

	router := api.NewRouter(api.RouterConfig{
		Appointments: apptSvc,
		Closures:     closureSvc,
		PgPool:       pgPool,
		Redis:        rdb,
		Env:          cfg.Env,
		Version:      version,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
