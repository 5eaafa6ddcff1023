package api

import (
	"net/http"

	"github.com/hackgods/clinic-booking/internal/auth"
)

func registerHandler(svc AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in auth.RegisterInput
		if !decodeJSON(w, r, &in) {
			return
		}

		sess, err := svc.Register(r.Context(), in)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, sess)
	}
}

func loginHandler(svc AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in auth.LoginInput
		if !decodeJSON(w, r, &in) {
			return
		}

		sess, err := svc.Login(r.Context(), in)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}
