package api

import (
	"net/http"

	"github.com/hackgods/clinic-booking/internal/doctor"
)

func createSpecialtyHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in doctor.SpecialtyInput
		if !decodeJSON(w, r, &in) {
			return
		}

		spec, err := svc.CreateSpecialty(r.Context(), in)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, spec)
	}
}

func updateSpecialtyHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var in doctor.SpecialtyInput
		if !decodeJSON(w, r, &in) {
			return
		}

		spec, err := svc.UpdateSpecialty(r.Context(), id, in)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, spec)
	}
}

func deleteSpecialtyHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteSpecialty(r.Context(), id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func createDoctorHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in doctor.DoctorInput
		if !decodeJSON(w, r, &in) {
			return
		}

		d, err := svc.CreateDoctor(r.Context(), in)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, d)
	}
}

func updateDoctorHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var in doctor.DoctorInput
		if !decodeJSON(w, r, &in) {
			return
		}

		d, err := svc.UpdateDoctor(r.Context(), id, in)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func toggleDoctorHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		d, err := svc.ToggleDoctor(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}
