package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/selamhealth/clinic-scheduling/internal/appointment"
	"github.com/selamhealth/clinic-scheduling/internal/closure"
)

type RouterConfig struct {
	Appointments *appointment.Service
	Closures     *closure.Service
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Appointment endpoints
	r.Post("/appointments", createAppointmentHandler(cfg.Appointments))
	r.Get("/appointments", listAppointmentsHandler(cfg.Appointments))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Appointments))
	r.Post("/appointments/{id}/status", transitionStatusHandler(cfg.Appointments))
	r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Appointments))
	r.Post("/appointments/{id}/check-in", checkInHandler(cfg.Appointments))
	r.Patch("/appointments/{id}/clinical", clinicalUpdateHandler(cfg.Appointments))

	// Availability
	r.Get("/providers/{id}/slots", availableSlotsHandler(cfg.Appointments))

	// Closure registry
	r.Get("/closures", listClosuresHandler(cfg.Closures))
	r.Post("/closures", createClosureHandler(cfg.Closures))
	r.Delete("/closures/{id}", deleteClosureHandler(cfg.Closures))

	return r
}
