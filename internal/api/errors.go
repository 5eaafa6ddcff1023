package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/auth"
	"github.com/hackgods/clinic-booking/internal/booking"
	"github.com/hackgods/clinic-booking/internal/doctor"
	"github.com/hackgods/clinic-booking/internal/receipt"
	redisclient "github.com/hackgods/clinic-booking/internal/redis"
	"github.com/hackgods/clinic-booking/internal/validate"
)

// handleServiceError maps domain errors to HTTP responses. Anything not
// recognised is logged and reported as a 500.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr validate.Errors
	var stepErr *booking.StepError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation_failed",
			Message: "some fields are invalid",
			Fields:  verr,
		})
	case errors.As(err, &stepErr):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:    "step_out_of_order",
			Message:  stepErr.Reason,
			Redirect: string(stepErr.Redirect),
		})
	case errors.Is(err, booking.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:    "session_not_found",
			Message:  err.Error(),
			Redirect: "start",
		})
	case errors.Is(err, booking.ErrAlreadyConfirmed):
		writeError(w, http.StatusConflict, "already_confirmed", err.Error())
	case errors.Is(err, booking.ErrNotSessionOwner):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, booking.ErrReceiptNotFound):
		writeError(w, http.StatusNotFound, "receipt_not_found", err.Error())
	case errors.Is(err, receipt.ErrRenderFailed):
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("receipt rendering failed")
		writeError(w, http.StatusInternalServerError, "receipt_failed", "the booking receipt could not be generated, please confirm again")

	case errors.Is(err, doctor.ErrNoDoctorAvailable):
		writeError(w, http.StatusConflict, "no_doctor_available", err.Error())
	case errors.Is(err, doctor.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, doctor.ErrSpecialtyNotFound):
		writeError(w, http.StatusNotFound, "specialty_not_found", err.Error())
	case errors.Is(err, doctor.ErrSpecialtyExists):
		writeError(w, http.StatusConflict, "specialty_exists", err.Error())

	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrSlotAlreadyBooked):
		writeError(w, http.StatusConflict, "slot_already_booked", err.Error())
	case errors.Is(err, appointment.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "busy", "another request is in progress, please retry shortly")
	case errors.Is(err, appointment.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, appointment.ErrNotOwner):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())

	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())

	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
