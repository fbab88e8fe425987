package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/selamhealth/clinic-scheduling/internal/ethiopic"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further transitions leave this status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WeeklyInterval is one open window in a provider's recurring schedule.
type WeeklyInterval struct {
	Day   string // monday .. sunday, matched case-insensitively
	Start string // HH:MM
	End   string // HH:MM
}

type Provider struct {
	ID                uuid.UUID
	Name              string
	Specialization    string
	MaxPatientsPerDay int
	Availability      []WeeklyInterval
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Appointment is one scheduled clinical encounter. Rows are never deleted;
// cancellation is a terminal status.
type Appointment struct {
	ID         uuid.UUID
	ProviderID uuid.UUID
	PatientID  uuid.UUID

	Date string // YYYY-MM-DD
	Time string // HH:MM

	// EthiopianDate is display metadata frozen at creation. It is never
	// re-derived, even if the conversion logic changes later.
	EthiopianDate ethiopic.Date

	Status Status

	Symptoms      string
	Notes         string
	Diagnosis     string
	VisitNotes    string
	Prescriptions []string

	CheckedInAt   *time.Time
	QueuePosition *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClinicalUpdate carries the clinician-editable payload fields.
type ClinicalUpdate struct {
	Diagnosis     *string
	VisitNotes    *string
	Prescriptions []string
}

// ListFilter narrows ListAppointments. Zero values mean "no constraint";
// role-based scoping is the caller's responsibility to encode here.
type ListFilter struct {
	ProviderID *uuid.UUID
	PatientID  *uuid.UUID
	Date       string
	Status     Status
	Limit      int
	Offset     int
}

// DaySchedule is the availability picture for one provider on one date.
type DaySchedule struct {
	Slots             []Slot
	RemainingCapacity int
	// Reason is set when the weekday has no template entry at all.
	Reason string
}

type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}
