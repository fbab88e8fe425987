package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/selamhealth/clinic-scheduling/internal/appointment"
	"github.com/selamhealth/clinic-scheduling/internal/closure"
	"github.com/selamhealth/clinic-scheduling/internal/ethiopic"
)

type CreateAppointmentRequest struct {
	ProviderID        string `json:"provider_id"`
	PatientID         string `json:"patient_id"`
	Date              string `json:"date"` // YYYY-MM-DD
	Time              string `json:"time"` // HH:MM
	ExpectedSpecialty string `json:"expected_specialty,omitempty"`
	Symptoms          string `json:"symptoms,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

type TransitionRequest struct {
	Status string `json:"status"`
}

type ClinicalUpdateRequest struct {
	Diagnosis     *string  `json:"diagnosis,omitempty"`
	VisitNotes    *string  `json:"visit_notes,omitempty"`
	Prescriptions []string `json:"prescriptions,omitempty"`
}

type AppointmentResponse struct {
	ID            uuid.UUID     `json:"id"`
	ProviderID    uuid.UUID     `json:"provider_id"`
	PatientID     uuid.UUID     `json:"patient_id"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	EthiopianDate ethiopic.Date `json:"ethiopian_date"`
	Status        string        `json:"status"`
	Symptoms      string        `json:"symptoms,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	Diagnosis     string        `json:"diagnosis,omitempty"`
	VisitNotes    string        `json:"visit_notes,omitempty"`
	Prescriptions []string      `json:"prescriptions,omitempty"`
	CheckedInAt   *time.Time    `json:"checked_in_at,omitempty"`
	QueuePosition *int          `json:"queue_position,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID,
		ProviderID:    a.ProviderID,
		PatientID:     a.PatientID,
		Date:          a.Date,
		Time:          a.Time,
		EthiopianDate: a.EthiopianDate,
		Status:        string(a.Status),
		Symptoms:      a.Symptoms,
		Notes:         a.Notes,
		Diagnosis:     a.Diagnosis,
		VisitNotes:    a.VisitNotes,
		Prescriptions: a.Prescriptions,
		CheckedInAt:   a.CheckedInAt,
		QueuePosition: a.QueuePosition,
		CreatedAt:     a.CreatedAt,
	}
}

type SlotsResponse struct {
	Date              string             `json:"date"`
	Slots             []appointment.Slot `json:"slots"`
	RemainingCapacity int                `json:"remaining_capacity"`
	Reason            string             `json:"reason,omitempty"`
}

type CreateClosureRequest struct {
	Date      string  `json:"date"`
	IsFullDay bool    `json:"is_full_day"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	Type      string  `json:"type,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

type ClosureResponse struct {
	ID        uuid.UUID `json:"id"`
	Date      string    `json:"date"`
	IsFullDay bool      `json:"is_full_day"`
	StartTime *string   `json:"start_time,omitempty"`
	EndTime   *string   `json:"end_time,omitempty"`
	Type      string    `json:"type"`
	Reason    string    `json:"reason,omitempty"`
}

func toClosureResponse(c *closure.Closure) ClosureResponse {
	return ClosureResponse{
		ID:        c.ID,
		Date:      c.Date,
		IsFullDay: c.IsFullDay,
		StartTime: c.StartTime,
		EndTime:   c.EndTime,
		Type:      string(c.Type),
		Reason:    c.Reason,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
