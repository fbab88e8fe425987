package closure

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanClosure(row pgx.Row) (*Closure, error) {
	var c Closure

	err := row.Scan(
		&c.ID,
		&c.Date,
		&c.IsFullDay,
		&c.StartTime,
		&c.EndTime,
		&c.Type,
		&c.Reason,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClosureNotFound
		}
		return nil, err
	}

	return &c, nil
}

func (r *PgRepository) FindByDate(ctx context.Context, date string) (*Closure, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, date, is_full_day, start_time, end_time, type, reason, created_at
		FROM clinic_closures
		WHERE date = $1
	`, date)
	return scanClosure(row)
}

func (r *PgRepository) Create(ctx context.Context, c *Closure) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clinic_closures (id, date, is_full_day, start_time, end_time, type, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`, c.ID, c.Date, c.IsFullDay, c.StartTime, c.EndTime, c.Type, c.Reason)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: the unique index on date enforces one closure per day
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateClosure
		}
		return err
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM clinic_closures WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrClosureNotFound
	}
	return nil
}

func (r *PgRepository) List(ctx context.Context) ([]Closure, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, is_full_day, start_time, end_time, type, reason, created_at
		FROM clinic_closures
		ORDER BY date
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Closure
	for rows.Next() {
		c, err := scanClosure(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
