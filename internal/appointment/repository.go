package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetProviderByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointments(ctx context.Context, f ListFilter) ([]Appointment, error)

	// Conflict and capacity checks. "Active" always means non-cancelled.
	CountActive(ctx context.Context, providerID uuid.UUID, date string) (int, error)
	GetActiveAt(ctx context.Context, providerID uuid.UUID, date, hhmm string) (*Appointment, error)
	ListBookedTimes(ctx context.Context, providerID uuid.UUID, date string) ([]string, error)

	// Creation and updates
	Create(ctx context.Context, a *Appointment) (*Appointment, error)
	// UpdateStatus is conditional on the current status so two racing
	// transitions cannot both apply.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)
	UpdateClinical(ctx context.Context, id uuid.UUID, u ClinicalUpdate) (*Appointment, error)

	// Queue assignment: next position for the appointment's (provider, date),
	// applied only while the row is still confirmed and unassigned.
	AssignQueuePosition(ctx context.Context, id uuid.UUID, at time.Time) (*Appointment, error)

	// Reminder worker
	ListConfirmedByDate(ctx context.Context, date string) ([]Appointment, error)
}
