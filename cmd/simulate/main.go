// simulate hammers the booking API with concurrent requests for the same
// slots and verifies the single-winner property: for every (provider,
// date, time) triple, exactly one request may succeed.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/selamhealth/clinic-scheduling/internal/db"
	"github.com/selamhealth/clinic-scheduling/internal/logging"
)

type simConfig struct {
	apiBaseURL string
	workers    int
	slots      int
	date       string
}

type slotTarget struct {
	providerID uuid.UUID
	date       string
	time       string

	wins int64
}

type counters struct {
	total    int64
	success  int64
	conflict int64
	rejected int64
	errored  int64
}

func main() {
	logging.Init("simulate", "dev")

	cfg := simConfig{
		apiBaseURL: getenv("API_BASE_URL", "http://127.0.0.1:8080"),
		workers:    getenvInt("SIM_WORKERS", 20),
		slots:      getenvInt("SIM_SLOTS", 10),
		date:       getenv("SIM_DATE", nextMonday()),
	}

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

	providers, err := loadIDs(ctx, pool, `SELECT id FROM providers LIMIT $1`, cfg.slots)
	if err != nil || len(providers) == 0 {
		log.Fatal().Err(err).Msg("load providers (run cmd/seed first)")
	}
	patients, err := loadIDs(ctx, pool, `SELECT id FROM patients LIMIT $1`, cfg.workers*cfg.slots)
	if err != nil || len(patients) == 0 {
		log.Fatal().Err(err).Msg("load patients (run cmd/seed first)")
	}

	targets := make([]*slotTarget, 0, cfg.slots)
	for i := 0; i < cfg.slots; i++ {
		targets = append(targets, &slotTarget{
			providerID: providers[i%len(providers)],
			date:       cfg.date,
			time:       fmt.Sprintf("%02d:%02d", 9+(i/2), (i%2)*30),
		})
	}

	log.Info().
		Int("workers", cfg.workers).
		Int("slots", len(targets)).
		Str("date", cfg.date).
		Msg("starting booking race")

	var c counters
	client := &http.Client{Timeout: 10 * time.Second}

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < cfg.workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i, target := range targets {
				patient := patients[(worker*len(targets)+i)%len(patients)]
				bookSlot(client, cfg.apiBaseURL, target, patient, &c)
			}
		}(w)
	}
	wg.Wait()

	elapsed := time.Since(start)

	ok := true
	for _, t := range targets {
		if t.wins > 1 {
			ok = false
			log.Error().
				Str("provider_id", t.providerID.String()).
				Str("time", t.time).
				Int64("wins", t.wins).
				Msg("slot booked more than once")
		}
	}

	log.Info().
		Int64("total", c.total).
		Int64("success", c.success).
		Int64("conflict", c.conflict).
		Int64("rejected", c.rejected).
		Int64("errored", c.errored).
		Dur("elapsed", elapsed).
		Msg("race finished")

	if !ok {
		log.Fatal().Msg("single-winner property violated")
	}
	log.Info().Msg("single-winner property held for every slot")
}

func bookSlot(client *http.Client, baseURL string, target *slotTarget, patientID uuid.UUID, c *counters) {
	atomic.AddInt64(&c.total, 1)

	body, _ := json.Marshal(map[string]string{
		"provider_id": target.providerID.String(),
		"patient_id":  patientID.String(),
		"date":        target.date,
		"time":        target.time,
	})

	req, err := http.NewRequest(http.MethodPost, baseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		atomic.AddInt64(&c.errored, 1)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-Role", "patient")
	req.Header.Set("X-Actor-ID", patientID.String())

	resp, err := client.Do(req)
	if err != nil {
		atomic.AddInt64(&c.errored, 1)
		return
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusCreated:
		atomic.AddInt64(&c.success, 1)
		atomic.AddInt64(&target.wins, 1)
	case http.StatusConflict:
		atomic.AddInt64(&c.conflict, 1)
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		atomic.AddInt64(&c.rejected, 1)
	default:
		atomic.AddInt64(&c.errored, 1)
	}
}

func loadIDs(ctx context.Context, pool *pgxpool.Pool, query string, limit int) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func nextMonday() string {
	d := time.Now().AddDate(0, 0, 1)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format("2006-01-02")
}
