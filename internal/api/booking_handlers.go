package api

import (
	"net/http"
	"strconv"

	"github.com/hackgods/clinic-booking/internal/booking"
)

// SessionHeader carries the booking session id on every /booking call.
const SessionHeader = "X-Booking-Session"

type DraftResponse struct {
	SessionID string         `json:"session_id"`
	Step      booking.Step   `json:"step"`
	Next      booking.Step   `json:"next"`
	Draft     *booking.Draft `json:"draft"`
}

type ConfirmResponse struct {
	*booking.Confirmation
	ReceiptURL string `json:"receipt_url"`
}

func draftResponse(d *booking.Draft) DraftResponse {
	return DraftResponse{
		SessionID: d.SessionID,
		Step:      d.Step,
		Next:      d.Step.Next(),
		Draft:     d,
	}
}

func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:    "missing_session",
			Message:  SessionHeader + " header is required",
			Redirect: "start",
		})
		return "", false
	}
	return id, true
}

// draftStep wraps a step that decodes a body of type T and returns the
// updated draft.
func draftStep[T any](fn func(r *http.Request, sessionID string, in T) (*booking.Draft, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := sessionID(w, r)
		if !ok {
			return
		}
		var in T
		if !decodeJSON(w, r, &in) {
			return
		}

		d, err := fn(r, sid, in)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, draftResponse(d))
	}
}

func startBookingHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Start(r.Context(), claims(r).Email)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.Header().Set(SessionHeader, d.SessionID)
		writeJSON(w, http.StatusCreated, draftResponse(d))
	}
}

// getDraftHandler returns the whole draft, or with ?step= only the fields
// that step collected.
func getDraftHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := sessionID(w, r)
		if !ok {
			return
		}

		d, err := svc.Draft(r.Context(), sid, claims(r).Email)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		if step := r.URL.Query().Get("step"); step != "" {
			writeJSON(w, http.StatusOK, d.View(booking.Step(step)))
			return
		}
		writeJSON(w, http.StatusOK, draftResponse(d))
	}
}

func patchDraftHandler(svc BookingService) http.HandlerFunc {
	return draftStep(func(r *http.Request, sid string, p booking.Patch) (*booking.Draft, error) {
		return svc.Patch(r.Context(), sid, claims(r).Email, p)
	})
}

func departmentStepHandler(svc BookingService) http.HandlerFunc {
	return draftStep(func(r *http.Request, sid string, in booking.DepartmentInput) (*booking.Draft, error) {
		return svc.ChooseDepartment(r.Context(), sid, claims(r).Email, in)
	})
}

func scheduleStepHandler(svc BookingService) http.HandlerFunc {
	return draftStep(func(r *http.Request, sid string, in booking.ScheduleInput) (*booking.Draft, error) {
		return svc.ChooseSchedule(r.Context(), sid, claims(r).Email, in)
	})
}

func patientStepHandler(svc BookingService) http.HandlerFunc {
	return draftStep(func(r *http.Request, sid string, in booking.PatientRecord) (*booking.Draft, error) {
		return svc.SubmitPatient(r.Context(), sid, claims(r).Email, in)
	})
}

func backStepHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := sessionID(w, r)
		if !ok {
			return
		}

		d, err := svc.Back(r.Context(), sid, claims(r).Email)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, draftResponse(d))
	}
}

func confirmBookingHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := sessionID(w, r)
		if !ok {
			return
		}

		conf, err := svc.Confirm(r.Context(), sid, claims(r).Email)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ConfirmResponse{
			Confirmation: conf,
			ReceiptURL:   "/booking/receipt",
		})
	}
}

func finishBookingHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := sessionID(w, r)
		if !ok {
			return
		}

		done, err := svc.Finish(r.Context(), sid, claims(r).Email)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.Header().Set("Refresh", strconv.Itoa(done.RedirectAfterSeconds))
		writeJSON(w, http.StatusOK, done)
	}
}

func resetBookingHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := sessionID(w, r)
		if !ok {
			return
		}

		if err := svc.Reset(r.Context(), sid, claims(r).Email); err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func receiptHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := sessionID(w, r)
		if !ok {
			return
		}

		doc, err := svc.Receipt(r.Context(), sid, claims(r).Email)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", doc.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(doc.Content)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc.Content)
	}
}
