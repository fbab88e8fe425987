package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/selamhealth/clinic-scheduling/internal/audit"
	"github.com/selamhealth/clinic-scheduling/internal/closure"
	"github.com/selamhealth/clinic-scheduling/internal/config"
	"github.com/selamhealth/clinic-scheduling/internal/ethiopic"
	"github.com/selamhealth/clinic-scheduling/internal/notify"
	redisclient "github.com/selamhealth/clinic-scheduling/internal/redis"
)

// ClosureFinder is what the booking engine needs from the closure
// registry. closure.Service satisfies it.
type ClosureFinder interface {
	FindClosure(ctx context.Context, date string) (*closure.Closure, error)
}

type Service struct {
	repo     Repository
	closures ClosureFinder
	locker   redisclient.Locker
	notifier notify.Notifier
	auditor  audit.Recorder
	settings func() config.Settings
	now      func() time.Time
}

func NewService(repo Repository, closures ClosureFinder, locker redisclient.Locker, notifier notify.Notifier, auditor audit.Recorder, settings func() config.Settings) *Service {
	return &Service{
		repo:     repo,
		closures: closures,
		locker:   locker,
		notifier: notifier,
		auditor:  auditor,
		settings: settings,
		now:      time.Now,
	}
}

type CreateParams struct {
	ProviderID uuid.UUID
	PatientID  uuid.UUID
	Date       string // YYYY-MM-DD
	Time       string // HH:MM
	// ExpectedSpecialty, when set, must match the provider's specialization.
	ExpectedSpecialty string
	Symptoms          string
	Notes             string
	Actor             Actor
}

// CreateAppointment books one (provider, date, time) slot. Checks run in a
// fixed order, first failure wins, and everything is read-only until the
// insert. Capacity and conflict are re-evaluated inside the per-(provider,
// date) lock so two racing requests for the same slot cannot both commit;
// the partial unique index backs the same guarantee at the storage layer.
func (s *Service) CreateAppointment(ctx context.Context, p CreateParams) (*Appointment, error) {
	st := s.settings()
	if st.MaintenanceMode {
		return nil, ErrMaintenanceMode
	}

	if err := validateSchedule(p.Date, p.Time, st.SlotStride); err != nil {
		return nil, err
	}

	provider, err := s.repo.GetProviderByID(ctx, p.ProviderID)
	if err != nil {
		if errors.Is(err, ErrProviderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load provider: %w", err)
	}

	patient, err := s.repo.GetPatientByID(ctx, p.PatientID)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	cl, err := s.closures.FindClosure(ctx, p.Date)
	if err != nil {
		return nil, fmt.Errorf("check closure: %w", err)
	}
	if cl != nil && cl.Blocks(p.Time) {
		return nil, ErrClinicClosed
	}

	// Display metadata, frozen onto the row at creation.
	ethDate, err := ethiopic.ToEthiopic(p.Date)
	if err != nil {
		return nil, fmt.Errorf("convert date: %w", err)
	}

	if p.ExpectedSpecialty != "" && !strings.EqualFold(p.ExpectedSpecialty, provider.Specialization) {
		return nil, ErrSpecializationMismatch
	}

	var created *Appointment

	err = s.locker.WithScheduleLock(ctx, provider.ID, p.Date, func(lockCtx context.Context) error {
		count, err := s.repo.CountActive(lockCtx, provider.ID, p.Date)
		if err != nil {
			return fmt.Errorf("count active appointments: %w", err)
		}
		if count >= provider.MaxPatientsPerDay {
			return ErrProviderFullyBooked
		}

		existing, err := s.repo.GetActiveAt(lockCtx, provider.ID, p.Date, p.Time)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			return fmt.Errorf("check slot conflict: %w", err)
		}
		if existing != nil {
			return ErrTimeSlotTaken
		}

		appt, err := s.repo.Create(lockCtx, &Appointment{
			ID:            uuid.New(),
			ProviderID:    provider.ID,
			PatientID:     patient.ID,
			Date:          p.Date,
			Time:          p.Time,
			EthiopianDate: ethDate,
			Status:        StatusPending,
			Symptoms:      p.Symptoms,
			Notes:         p.Notes,
			Prescriptions: []string{},
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingInProgress
		}
		return nil, err
	}

	s.notifyPatient(ctx, created, notify.KindAppointmentCreated,
		fmt.Sprintf("Your appointment with %s on %s (%s) at %s has been requested.",
			provider.Name, created.Date, created.EthiopianDate.Display, created.Time))
	s.record(ctx, p.Actor, audit.ActionCreate, created.ID, map[string]any{
		"provider_id": provider.ID.String(),
		"date":        created.Date,
		"time":        created.Time,
	})

	return created, nil
}

// TransitionStatus moves an appointment through the lifecycle graph. The
// write is a compare-and-set on the status the caller was shown, so a
// concurrent transition surfaces as a TransitionError instead of silently
// overwriting.
func (s *Service) TransitionStatus(ctx context.Context, id uuid.UUID, to Status, actor Actor) (*Appointment, error) {
	if to == StatusCancelled {
		return s.Cancel(ctx, id, actor)
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var op Operation
	switch to {
	case StatusConfirmed:
		op = OpConfirm
	case StatusCompleted:
		op = OpComplete
	default:
		return nil, &TransitionError{From: appt.Status, To: to, Allowed: AllowedTransitions(appt.Status)}
	}

	if err := Authorize(op, actor, appt); err != nil {
		return nil, err
	}

	if err := ValidateTransition(appt.Status, to); err != nil {
		return nil, err
	}

	updated, err := s.applyTransition(ctx, appt, to)
	if err != nil {
		return nil, err
	}

	s.notifyPatient(ctx, updated, notify.KindStatusChange,
		fmt.Sprintf("Your appointment on %s at %s is now %s.", updated.Date, updated.Time, updated.Status))
	s.record(ctx, actor, audit.ActionStatusChange, updated.ID, map[string]any{
		"from": string(appt.Status),
		"to":   string(to),
	})

	return updated, nil
}

// Cancel applies the actor-scoped cancellation rules: a patient may only
// cancel an appointment they own and only while it is pending; staff may
// cancel from either non-terminal status.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor Actor) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := Authorize(OpCancel, actor, appt); err != nil {
		return nil, err
	}

	if appt.Status.IsTerminal() {
		return nil, ErrAlreadyTerminal
	}

	if actor.Role == RolePatient && appt.Status == StatusConfirmed {
		return nil, ErrCannotCancelConfirmed
	}

	updated, err := s.applyTransition(ctx, appt, StatusCancelled)
	if err != nil {
		return nil, err
	}

	s.notifyPatient(ctx, updated, notify.KindStatusChange,
		fmt.Sprintf("Your appointment on %s at %s has been cancelled.", updated.Date, updated.Time))
	s.record(ctx, actor, audit.ActionStatusChange, updated.ID, map[string]any{
		"from": string(appt.Status),
		"to":   string(StatusCancelled),
	})

	return updated, nil
}

// applyTransition performs the conditional status write and turns a lost
// race into a TransitionError against the status that actually won.
func (s *Service) applyTransition(ctx context.Context, appt *Appointment, to Status) (*Appointment, error) {
	updated, err := s.repo.UpdateStatus(ctx, appt.ID, appt.Status, to)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, ErrAppointmentNotFound) {
		return nil, fmt.Errorf("update status: %w", err)
	}

	current, readErr := s.repo.GetAppointmentByID(ctx, appt.ID)
	if readErr != nil {
		return nil, readErr
	}
	return nil, &TransitionError{From: current.Status, To: to, Allowed: AllowedTransitions(current.Status)}
}

// CheckIn assigns the next queue position for the provider's day. Legal
// only from confirmed; positions are monotone per (provider, date) and
// never reassigned, even if the appointment is cancelled afterwards.
func (s *Service) CheckIn(ctx context.Context, id uuid.UUID, actor Actor) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := Authorize(OpCheckIn, actor, appt); err != nil {
		return nil, err
	}

	if appt.Status != StatusConfirmed {
		return nil, ErrNotConfirmed
	}
	if appt.QueuePosition != nil {
		// Idempotent: a second check-in returns the existing position.
		return appt, nil
	}

	var updated *Appointment
	err = s.locker.WithScheduleLock(ctx, appt.ProviderID, appt.Date, func(lockCtx context.Context) error {
		a, err := s.repo.AssignQueuePosition(lockCtx, appt.ID, s.now())
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				// Status moved or position got assigned since our read.
				return ErrNotConfirmed
			}
			return fmt.Errorf("assign queue position: %w", err)
		}
		updated = a
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingInProgress
		}
		return nil, err
	}

	s.record(ctx, actor, audit.ActionCheckIn, updated.ID, map[string]any{
		"queue_position": *updated.QueuePosition,
	})

	return updated, nil
}

// UpdateClinicalDetails mutates the clinician-owned payload. Gated by role
// only, not by status.
func (s *Service) UpdateClinicalDetails(ctx context.Context, id uuid.UUID, u ClinicalUpdate, actor Actor) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := Authorize(OpEditClinical, actor, appt); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateClinical(ctx, id, u)
	if err != nil {
		return nil, fmt.Errorf("update clinical fields: %w", err)
	}

	s.record(ctx, actor, audit.ActionClinicalEdit, updated.ID, nil)

	return updated, nil
}

// GetAvailableSlots expands the provider's weekly template for a date and
// marks slots against current non-cancelled bookings.
func (s *Service) GetAvailableSlots(ctx context.Context, providerID uuid.UUID, date string) (DaySchedule, error) {
	provider, err := s.repo.GetProviderByID(ctx, providerID)
	if err != nil {
		return DaySchedule{}, err
	}

	booked, err := s.repo.ListBookedTimes(ctx, providerID, date)
	if err != nil {
		return DaySchedule{}, fmt.Errorf("list booked times: %w", err)
	}

	return SlotsForDate(provider, date, booked, s.settings().SlotStride)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, f ListFilter) ([]Appointment, error) {
	appts, err := s.repo.ListAppointments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// RemindConfirmed notifies every patient with a confirmed appointment on
// the given date. Called by the reminder worker.
func (s *Service) RemindConfirmed(ctx context.Context, date string) error {
	appts, err := s.repo.ListConfirmedByDate(ctx, date)
	if err != nil {
		return fmt.Errorf("list confirmed appointments: %w", err)
	}

	for i := range appts {
		s.notifyPatient(ctx, &appts[i], notify.KindReminder,
			fmt.Sprintf("Reminder: you have an appointment on %s (%s) at %s.",
				appts[i].Date, appts[i].EthiopianDate.Display, appts[i].Time))
	}

	return nil
}

// Side effects run after the durable write and never fail the operation.

func (s *Service) notifyPatient(ctx context.Context, a *Appointment, kind, message string) {
	err := s.notifier.Notify(ctx, notify.Notification{
		UserID:  a.PatientID,
		Kind:    kind,
		Message: message,
		Link:    fmt.Sprintf("/appointments/%s", a.ID),
	})
	if err != nil {
		log.Warn().Err(err).
			Str("appointment_id", a.ID.String()).
			Str("kind", kind).
			Msg("failed to send notification")
	}
}

func (s *Service) record(ctx context.Context, actor Actor, action string, resourceID uuid.UUID, details map[string]any) {
	var actorID *uuid.UUID
	if actor.ID != uuid.Nil {
		id := actor.ID
		actorID = &id
	}

	err := s.auditor.Record(ctx, audit.Event{
		ActorID:      actorID,
		Action:       action,
		ResourceType: "appointment",
		ResourceID:   resourceID.String(),
		Details:      details,
	})
	if err != nil {
		log.Warn().Err(err).
			Str("action", action).
			Str("resource_id", resourceID.String()).
			Msg("failed to record audit event")
	}
}

func validateSchedule(date, hhmm string, stride time.Duration) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: bad date %q", ErrInvalidSchedule, date)
	}
	minutes, err := parseHHMM(hhmm)
	if err != nil {
		return fmt.Errorf("%w: bad time %q", ErrInvalidSchedule, hhmm)
	}
	if stride <= 0 {
		stride = DefaultStride
	}
	if minutes%int(stride.Minutes()) != 0 {
		return fmt.Errorf("%w: time %q is not aligned to the %s booking granularity", ErrInvalidSchedule, hhmm, stride)
	}
	return nil
}
