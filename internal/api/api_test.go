package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selamhealth/clinic-scheduling/internal/appointment"
)

func TestActorFromRequest(t *testing.T) {
	t.Run("resolves id and role from headers", func(t *testing.T) {
		id := uuid.New()
		r := httptest.NewRequest(http.MethodPost, "/appointments", nil)
		r.Header.Set("X-Actor-ID", id.String())
		r.Header.Set("X-Actor-Role", "doctor")

		actor, err := actorFromRequest(r)
		require.NoError(t, err)
		assert.Equal(t, id, actor.ID)
		assert.Equal(t, appointment.RoleDoctor, actor.Role)
	})

	t.Run("role is required", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/appointments", nil)
		_, err := actorFromRequest(r)
		assert.Error(t, err)
	})

	t.Run("malformed id is rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/appointments", nil)
		r.Header.Set("X-Actor-ID", "not-a-uuid")
		r.Header.Set("X-Actor-Role", "patient")

		_, err := actorFromRequest(r)
		assert.Error(t, err)
	})
}

func TestHandleAppointmentError(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{appointment.ErrProviderNotFound, http.StatusNotFound, "provider_not_found"},
		{appointment.ErrPatientNotFound, http.StatusNotFound, "patient_not_found"},
		{appointment.ErrAppointmentNotFound, http.StatusNotFound, "appointment_not_found"},
		{appointment.ErrInvalidSchedule, http.StatusBadRequest, "invalid_schedule"},
		{appointment.ErrMaintenanceMode, http.StatusServiceUnavailable, "maintenance_mode"},
		{appointment.ErrClinicClosed, http.StatusConflict, "clinic_closed"},
		{appointment.ErrSpecializationMismatch, http.StatusUnprocessableEntity, "specialization_mismatch"},
		{appointment.ErrProviderFullyBooked, http.StatusConflict, "provider_fully_booked"},
		{appointment.ErrTimeSlotTaken, http.StatusConflict, "time_slot_taken"},
		{appointment.ErrBookingInProgress, http.StatusConflict, "booking_in_progress"},
		{appointment.ErrForbidden, http.StatusForbidden, "forbidden"},
		{appointment.ErrCannotCancelConfirmed, http.StatusConflict, "cannot_cancel_confirmed"},
		{appointment.ErrAlreadyTerminal, http.StatusConflict, "already_terminal"},
		{appointment.ErrNotConfirmed, http.StatusConflict, "not_confirmed"},
		{&appointment.TransitionError{From: appointment.StatusCompleted, To: appointment.StatusPending}, http.StatusConflict, "invalid_status_transition"},
	}

	for _, tc := range cases {
		t.Run(tc.wantCode, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleAppointmentError(rec, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tc.wantCode, resp.Error)
		})
	}
}
