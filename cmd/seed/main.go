package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/selamhealth/clinic-scheduling/internal/db"
	"github.com/selamhealth/clinic-scheduling/internal/logging"
)

func main() {
	logging.Init("seed", "dev")
	log.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedProviders(context.Background(), pool, 30); err != nil {
		log.Fatal().Err(err).Msg("seed providers")
	}
	if err := seedPatients(context.Background(), pool, 2000); err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedClosures(context.Background(), pool); err != nil {
		log.Fatal().Err(err).Msg("seed closures")
	}

	log.Info().Msg("seed complete")
}

func seedProviders(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Info().Int("count", count).Msg("seeding providers")

	specializations := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	weekdays := []string{"monday", "tuesday", "wednesday", "thursday", "friday"}

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := fmt.Sprintf("Dr. %s %s", gofakeit.FirstName(), gofakeit.LastName())
		specialization := specializations[gofakeit.Number(0, len(specializations)-1)]
		capacity := gofakeit.Number(6, 16)

		_, err := pool.Exec(ctx, `
			INSERT INTO providers (id, name, specialization, max_patients_per_day, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, id, name, specialization, capacity)
		if err != nil {
			return err
		}

		// Two to four working weekdays, morning or full-day windows.
		days := gofakeit.Number(2, 4)
		for _, day := range weekdays[:days] {
			start := "09:00"
			end := "12:00"
			if gofakeit.Bool() {
				end = "17:00"
			}
			_, err := pool.Exec(ctx, `
				INSERT INTO provider_availability (id, provider_id, day_of_week, start_time, end_time)
				VALUES ($1, $2, $3, $4, $5)
			`, uuid.New(), id, day, start, end)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Info().Int("count", count).Msg("seeding patients")

	for i := 0; i < count; i++ {
		email := gofakeit.Email()
		_, err := pool.Exec(ctx, `
			INSERT INTO patients (id, name, email, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, uuid.New(), gofakeit.Name(), &email)
		if err != nil {
			return err
		}
	}

	return nil
}

func seedClosures(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("seeding closures")

	type entry struct {
		date      string
		isFullDay bool
		start     *string
		end       *string
		typ       string
		reason    string
	}

	ptr := func(s string) *string { return &s }

	year := time.Now().Year() + 1
	entries := []entry{
		{date: fmt.Sprintf("%d-01-07", year), isFullDay: true, typ: "Holiday", reason: "Genna"},
		{date: fmt.Sprintf("%d-09-11", year), isFullDay: true, typ: "Holiday", reason: "Enkutatash"},
		{date: fmt.Sprintf("%d-09-27", year), isFullDay: true, typ: "Ceremony", reason: "Meskel"},
		{date: fmt.Sprintf("%d-06-05", year), isFullDay: false, start: ptr("13:00"), end: ptr("17:00"), typ: "Maintenance", reason: "Equipment servicing"},
	}

	for _, e := range entries {
		_, err := pool.Exec(ctx, `
			INSERT INTO clinic_closures (id, date, is_full_day, start_time, end_time, type, reason, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now())
			ON CONFLICT (date) DO NOTHING
		`, uuid.New(), e.date, e.isFullDay, e.start, e.end, e.typ, e.reason)
		if err != nil {
			return err
		}
	}

	return nil
}
