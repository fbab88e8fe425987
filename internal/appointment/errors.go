package appointment

import (
	"errors"
	"fmt"
)

var (
	ErrProviderNotFound    = errors.New("provider not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	ErrInvalidSchedule = errors.New("invalid date or time")

	ErrClinicClosed           = errors.New("clinic is closed on the requested date")
	ErrMaintenanceMode        = errors.New("booking is temporarily disabled for maintenance")
	ErrSpecializationMismatch = errors.New("provider specialization does not match the requested specialty")
	ErrProviderFullyBooked    = errors.New("provider has reached the daily appointment limit")
	ErrTimeSlotTaken          = errors.New("time slot already has a non-cancelled appointment")
	ErrBookingInProgress      = errors.New("another booking for this schedule is in progress, please retry")

	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrForbidden               = errors.New("actor is not allowed to perform this operation")
	ErrCannotCancelConfirmed   = errors.New("patients cannot cancel a confirmed appointment")
	ErrAlreadyTerminal         = errors.New("appointment is already in a terminal status")
	ErrNotConfirmed            = errors.New("appointment must be confirmed before check-in")
)

// TransitionError reports an illegal status transition together with the
// transitions that would have been legal from the current status.
type TransitionError struct {
	From    Status
	To      Status
	Allowed []Status
}

func (e *TransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("cannot transition from terminal status %q to %q", e.From, e.To)
	}
	return fmt.Sprintf("cannot transition from %q to %q, allowed: %v", e.From, e.To, e.Allowed)
}

// Unwrap lets errors.Is(err, ErrInvalidStatusTransition) keep working for
// callers that do not need the details.
func (e *TransitionError) Unwrap() error { return ErrInvalidStatusTransition }
