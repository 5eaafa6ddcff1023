package api

import (
	"net/http"
	"time"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/auth"
)

type StatusRequest struct {
	Status string `json:"status"`
}

// HistoryEntry is an appointment with its display colour.
type HistoryEntry struct {
	appointment.Appointment
	QueueLabel  string `json:"queue_label"`
	StatusColor string `json:"status_color"`
}

func toHistory(list []appointment.Appointment) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(list))
	for _, a := range list {
		out = append(out, HistoryEntry{
			Appointment: a,
			QueueLabel:  a.QueueLabel(),
			StatusColor: a.Status.Color(),
		})
	}
	return out
}

func claims(r *http.Request) *auth.Claims {
	c, _ := auth.ClaimsFromContext(r.Context())
	if c == nil {
		return &auth.Claims{}
	}
	return c
}

func createAppointmentHandler(svc LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in appointment.NewEntry
		if !decodeJSON(w, r, &in) {
			return
		}
		in.OwnerEmail = claims(r).Email
		if in.PatientName == "" {
			in.PatientName = claims(r).Name
		}

		appt, err := svc.Append(r.Context(), in)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, appt)
	}
}

func myAppointmentsHandler(svc LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Load(r.Context(), claims(r).Email))
	}
}

func cancelAppointmentHandler(svc LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		appt, err := svc.Cancel(r.Context(), id, claims(r).Email)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, appt)
	}
}

func historyHandler(svc LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, toHistory(svc.Load(r.Context(), claims(r).Email)))
	}
}

func decodeStatus(w http.ResponseWriter, r *http.Request) (appointment.Status, bool) {
	var req StatusRequest
	if !decodeJSON(w, r, &req) {
		return "", false
	}
	status, err := appointment.ParseStatus(req.Status)
	if err != nil {
		handleServiceError(w, r, err)
		return "", false
	}
	return status, true
}

func historyStatusHandler(svc LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		status, ok := decodeStatus(w, r)
		if !ok {
			return
		}

		appt, err := svc.UpdateOwnStatus(r.Context(), id, claims(r).Email, status)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toHistory([]appointment.Appointment{*appt})[0])
	}
}

func adminStatusHandler(svc LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		status, ok := decodeStatus(w, r)
		if !ok {
			return
		}

		appt, err := svc.UpdateStatus(r.Context(), id, status)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, appt)
	}
}

func doctorAppointmentsHandler(svc LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := claims(r).DoctorName
		if name == "" {
			writeError(w, http.StatusForbidden, "forbidden", "account is not linked to a doctor")
			return
		}

		now := time.Now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		list, err := svc.ListForDoctor(r.Context(), name, today)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
