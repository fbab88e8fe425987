package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/selamhealth/clinic-scheduling/internal/appointment"
	"github.com/selamhealth/clinic-scheduling/internal/closure"
)

// actorFromRequest resolves the acting identity from the gateway headers.
// Authentication itself happens upstream; the engine only needs id + role.
func actorFromRequest(r *http.Request) (appointment.Actor, error) {
	role := appointment.Role(r.Header.Get("X-Actor-Role"))
	if role == "" {
		return appointment.Actor{}, errors.New("X-Actor-Role header is required")
	}

	var id uuid.UUID
	if raw := r.Header.Get("X-Actor-ID"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return appointment.Actor{}, errors.New("X-Actor-ID must be a valid UUID")
		}
		id = parsed
	}

	return appointment.Actor{ID: id, Role: role}, nil
}

func createAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		providerID, err := uuid.Parse(req.ProviderID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "provider_id must be a valid UUID")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_actor", err.Error())
			return
		}

		appt, err := svc.CreateAppointment(r.Context(), appointment.CreateParams{
			ProviderID:        providerID,
			PatientID:         patientID,
			Date:              req.Date,
			Time:              req.Time,
			ExpectedSpecialty: req.ExpectedSpecialty,
			Symptoms:          req.Symptoms,
			Notes:             req.Notes,
			Actor:             actor,
		})
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f appointment.ListFilter

		q := r.URL.Query()
		if raw := q.Get("provider_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_provider_id", "provider_id must be a valid UUID")
				return
			}
			f.ProviderID = &id
		}
		if raw := q.Get("patient_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			f.PatientID = &id
		}
		f.Date = q.Get("date")
		f.Status = appointment.Status(q.Get("status"))

		appts, err := svc.ListAppointments(r.Context(), f)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, toAppointmentResponse(&appts[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func transitionStatusHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		var req TransitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_actor", err.Error())
			return
		}

		appt, err := svc.TransitionStatus(r.Context(), id, appointment.Status(req.Status), actor)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_actor", err.Error())
			return
		}

		appt, err := svc.Cancel(r.Context(), id, actor)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func checkInHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_actor", err.Error())
			return
		}

		appt, err := svc.CheckIn(r.Context(), id, actor)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func clinicalUpdateHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		var req ClinicalUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_actor", err.Error())
			return
		}

		appt, err := svc.UpdateClinicalDetails(r.Context(), id, appointment.ClinicalUpdate{
			Diagnosis:     req.Diagnosis,
			VisitNotes:    req.VisitNotes,
			Prescriptions: req.Prescriptions,
		}, actor)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func availableSlotsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "id must be a valid UUID")
			return
		}

		date := r.URL.Query().Get("date")
		if date == "" {
			writeError(w, http.StatusBadRequest, "missing_date", "date query parameter is required")
			return
		}

		schedule, err := svc.GetAvailableSlots(r.Context(), providerID, date)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, SlotsResponse{
			Date:              date,
			Slots:             schedule.Slots,
			RemainingCapacity: schedule.RemainingCapacity,
			Reason:            schedule.Reason,
		})
	}
}

func listClosuresHandler(svc *closure.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		closures, err := svc.ListClosures(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]ClosureResponse, 0, len(closures))
		for i := range closures {
			resp = append(resp, toClosureResponse(&closures[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func createClosureHandler(svc *closure.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateClosureRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		c, err := svc.AddClosure(r.Context(), closure.AddClosureParams{
			Date:      req.Date,
			IsFullDay: req.IsFullDay,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Type:      closure.Type(req.Type),
			Reason:    req.Reason,
		})
		if err != nil {
			if errors.Is(err, closure.ErrDuplicateClosure) {
				writeError(w, http.StatusConflict, "duplicate_closure", err.Error())
				return
			}
			writeError(w, http.StatusBadRequest, "invalid_closure", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, toClosureResponse(c))
	}
}

func deleteClosureHandler(svc *closure.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_closure_id", "id must be a valid UUID")
			return
		}

		if err := svc.RemoveClosure(r.Context(), id); err != nil {
			if errors.Is(err, closure.ErrClosureNotFound) {
				writeError(w, http.StatusNotFound, "closure_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func appointmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func handleAppointmentError(w http.ResponseWriter, err error) {
	var te *appointment.TransitionError

	switch {
	case errors.Is(err, appointment.ErrProviderNotFound):
		writeError(w, http.StatusNotFound, "provider_not_found", err.Error())
	case errors.Is(err, appointment.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrInvalidSchedule):
		writeError(w, http.StatusBadRequest, "invalid_schedule", err.Error())
	case errors.Is(err, appointment.ErrMaintenanceMode):
		writeError(w, http.StatusServiceUnavailable, "maintenance_mode", err.Error())
	case errors.Is(err, appointment.ErrClinicClosed):
		writeError(w, http.StatusConflict, "clinic_closed", err.Error())
	case errors.Is(err, appointment.ErrSpecializationMismatch):
		writeError(w, http.StatusUnprocessableEntity, "specialization_mismatch", err.Error())
	case errors.Is(err, appointment.ErrProviderFullyBooked):
		writeError(w, http.StatusConflict, "provider_fully_booked", err.Error())
	case errors.Is(err, appointment.ErrTimeSlotTaken):
		writeError(w, http.StatusConflict, "time_slot_taken", err.Error())
	case errors.Is(err, appointment.ErrBookingInProgress):
		writeError(w, http.StatusConflict, "booking_in_progress", "another booking for this schedule is in progress, please retry shortly")
	case errors.As(err, &te):
		writeError(w, http.StatusConflict, "invalid_status_transition", te.Error())
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, appointment.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, appointment.ErrCannotCancelConfirmed):
		writeError(w, http.StatusConflict, "cannot_cancel_confirmed", err.Error())
	case errors.Is(err, appointment.ErrAlreadyTerminal):
		writeError(w, http.StatusConflict, "already_terminal", err.Error())
	case errors.Is(err, appointment.ErrNotConfirmed):
		writeError(w, http.StatusConflict, "not_confirmed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
