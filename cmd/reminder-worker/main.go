package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/selamhealth/clinic-scheduling/internal/appointment"
	"github.com/selamhealth/clinic-scheduling/internal/audit"
	"github.com/selamhealth/clinic-scheduling/internal/closure"
	"github.com/selamhealth/clinic-scheduling/internal/config"
	"github.com/selamhealth/clinic-scheduling/internal/db"
	"github.com/selamhealth/clinic-scheduling/internal/logging"
	"github.com/selamhealth/clinic-scheduling/internal/notify"
	redisclient "github.com/selamhealth/clinic-scheduling/internal/redis"
)

// The reminder worker pings every patient with a confirmed appointment for
// the following day.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init("reminder-worker", "dev")
		log.Fatal().Err(err).Msg("config load error")
	}

	logging.Init("reminder-worker", cfg.Env)
	log.Info().Str("env", cfg.Env).Dur("interval", cfg.ReminderInterval).Msg("reminder-worker starting up")

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
	svc := appointment.NewService(
		appointment.NewPgRepository(pgPool),
		closureSvc,
		redisclient.NewRedisScheduleLocker(rdb, cfg.LockTTL),
		notify.NewRedisNotifier(rdb),
		audit.NewPgRecorder(pgPool),
		cfg.Snapshot(),
	)

	// Run once at startup
	runOnce(rootCtx, svc)

	ticker := time.NewTicker(cfg.ReminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping reminder worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	start := time.Now()
	if err := svc.RemindConfirmed(runCtx, tomorrow); err != nil {
		log.Error().Err(err).Msg("reminder run error")
		return
	}
	log.Info().Str("date", tomorrow).Dur("took", time.Since(start)).Msg("reminder run complete")
}
