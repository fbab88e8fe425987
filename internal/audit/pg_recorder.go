package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRecorder struct {
	pool *pgxpool.Pool
}

func NewPgRecorder(pool *pgxpool.Pool) *PgRecorder {
	return &PgRecorder{pool: pool}
}

func (r *PgRecorder) Record(ctx context.Context, ev Event) error {
	var details []byte
	if ev.Details != nil {
		data, err := json.Marshal(ev.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		details = data
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_events (actor_id, action, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, ev.ActorID, ev.Action, ev.ResourceType, ev.ResourceID, details)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	return nil
}
