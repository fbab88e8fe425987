package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const appointmentColumns = `
	id, provider_id, patient_id, date, time,
	eth_day, eth_month, eth_year, eth_month_name, eth_display,
	status, symptoms, notes, diagnosis, visit_notes, prescriptions,
	checked_in_at, queue_position, created_at, updated_at
`

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.ProviderID,
		&a.PatientID,
		&a.Date,
		&a.Time,
		&a.EthiopianDate.Day,
		&a.EthiopianDate.Month,
		&a.EthiopianDate.Year,
		&a.EthiopianDate.MonthName,
		&a.EthiopianDate.Display,
		&a.Status,
		&a.Symptoms,
		&a.Notes,
		&a.Diagnosis,
		&a.VisitNotes,
		&a.Prescriptions,
		&a.CheckedInAt,
		&a.QueuePosition,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

// Interface methods

func (r *PgRepository) GetProviderByID(ctx context.Context, id uuid.UUID) (*Provider, error) {
	var p Provider

	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialization, max_patients_per_day, created_at, updated_at
		FROM providers
		WHERE id = $1
	`, id)
	err := row.Scan(&p.ID, &p.Name, &p.Specialization, &p.MaxPatientsPerDay, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT day_of_week, start_time, end_time
		FROM provider_availability
		WHERE provider_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var w WeeklyInterval
		if err := rows.Scan(&w.Day, &w.Start, &w.End); err != nil {
			return nil, err
		}
		p.Availability = append(p.Availability, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context, f ListFilter) ([]Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ProviderID != nil {
		query += ` AND provider_id = ` + arg(*f.ProviderID)
	}
	if f.PatientID != nil {
		query += ` AND patient_id = ` + arg(*f.PatientID)
	}
	if f.Date != "" {
		query += ` AND date = ` + arg(f.Date)
	}
	if f.Status != "" {
		query += ` AND status = ` + arg(f.Status)
	}

	query += ` ORDER BY date, time`

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	query += ` LIMIT ` + arg(limit)
	if f.Offset > 0 {
		query += ` OFFSET ` + arg(f.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) CountActive(ctx context.Context, providerID uuid.UUID, date string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM appointments
		WHERE provider_id = $1 AND date = $2 AND status <> 'cancelled'
	`, providerID, date).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PgRepository) GetActiveAt(ctx context.Context, providerID uuid.UUID, date, hhmm string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE provider_id = $1 AND date = $2 AND time = $3 AND status <> 'cancelled'
	`, providerID, date, hhmm)
	return scanAppointment(row)
}

func (r *PgRepository) ListBookedTimes(ctx context.Context, providerID uuid.UUID, date string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT time
		FROM appointments
		WHERE provider_id = $1 AND date = $2 AND status <> 'cancelled'
		ORDER BY time
	`, providerID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return times, nil
}

func (r *PgRepository) Create(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (
			id, provider_id, patient_id, date, time,
			eth_day, eth_month, eth_year, eth_month_name, eth_display,
			status, symptoms, notes, prescriptions, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now(), now())
		RETURNING `+appointmentColumns+`
	`,
		a.ID, a.ProviderID, a.PatientID, a.Date, a.Time,
		a.EthiopianDate.Day, a.EthiopianDate.Month, a.EthiopianDate.Year,
		a.EthiopianDate.MonthName, a.EthiopianDate.Display,
		a.Status, a.Symptoms, a.Notes, a.Prescriptions,
	)

	created, err := scanAppointment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 on the live-slot partial index: someone else won the slot
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrTimeSlotTaken
		}
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateClinical(ctx context.Context, id uuid.UUID, u ClinicalUpdate) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET diagnosis     = COALESCE($2, diagnosis),
		    visit_notes   = COALESCE($3, visit_notes),
		    prescriptions = COALESCE($4, prescriptions),
		    updated_at    = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, u.Diagnosis, u.VisitNotes, u.Prescriptions)

	return scanAppointment(row)
}

func (r *PgRepository) AssignQueuePosition(ctx context.Context, id uuid.UUID, at time.Time) (*Appointment, error) {
	// MAX+1 over every row for the day, cancelled included, so a position is
	// never handed out twice.
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments AS a
		SET queue_position = (
			SELECT COALESCE(MAX(queue_position), 0) + 1
			FROM appointments
			WHERE provider_id = a.provider_id AND date = a.date
		),
		    checked_in_at = $2,
		    updated_at = now()
		WHERE a.id = $1
		  AND a.status = 'confirmed'
		  AND a.queue_position IS NULL
		RETURNING `+appointmentColumns+`
	`, id, at)

	return scanAppointment(row)
}

func (r *PgRepository) ListConfirmedByDate(ctx context.Context, date string) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE date = $1 AND status = 'confirmed'
		ORDER BY time
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
