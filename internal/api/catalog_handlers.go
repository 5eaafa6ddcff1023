package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hackgods/clinic-booking/internal/availability"
	"github.com/hackgods/clinic-booking/internal/doctor"
)

type AvailabilityResponse struct {
	DoctorID int64                      `json:"doctor_id"`
	Days     []availability.DaySchedule `json:"days"`
}

func criteriaFromQuery(r *http.Request) (doctor.Criteria, error) {
	q := r.URL.Query()
	c := doctor.Criteria{
		Query:      strings.TrimSpace(q.Get("q")),
		Gender:     doctor.Gender(strings.ToLower(q.Get("gender"))),
		Department: q.Get("department"),
		TimeSlot:   q.Get("time"),
		Date:       q.Get("date"),
	}
	if raw := q.Get("available"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return doctor.Criteria{}, err
		}
		c.AvailableOnly = v
	}
	return c, nil
}

func listDoctorsHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := criteriaFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_query", "available must be true or false")
			return
		}

		doctors, err := svc.ListDoctors(r.Context(), c)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, doctors)
	}
}

func searchDoctorsHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, doctors)
	}
}

func getDoctorHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		d, err := svc.GetDoctor(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func availabilityHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		anchor := time.Now()
		if raw := r.URL.Query().Get("from"); raw != "" {
			parsed, err := time.ParseInLocation(availability.DateLayout, raw, time.Local)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "from must be YYYY-MM-DD")
				return
			}
			anchor = parsed
		}

		days, err := svc.Week(r.Context(), id, anchor)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, AvailabilityResponse{DoctorID: id, Days: days})
	}
}

func listSpecialtiesHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		specs, err := svc.ListSpecialties(r.Context())
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, specs)
	}
}

func doctorsBySpecialtyHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		doctors, err := svc.ListBySpecialty(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, doctors)
	}
}
