package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/auth"
	"github.com/hackgods/clinic-booking/internal/availability"
	"github.com/hackgods/clinic-booking/internal/booking"
	"github.com/hackgods/clinic-booking/internal/doctor"
	"github.com/hackgods/clinic-booking/internal/receipt"
)

type DoctorService interface {
	ListDoctors(ctx context.Context, c doctor.Criteria) ([]doctor.Doctor, error)
	Search(ctx context.Context, query string) ([]doctor.Doctor, error)
	GetDoctor(ctx context.Context, id int64) (*doctor.Doctor, error)
	ListBySpecialty(ctx context.Context, specialtyID int64) ([]doctor.Doctor, error)
	Week(ctx context.Context, id int64, anchor time.Time) ([]availability.DaySchedule, error)
	ListSpecialties(ctx context.Context) ([]doctor.Specialty, error)
	CreateSpecialty(ctx context.Context, in doctor.SpecialtyInput) (*doctor.Specialty, error)
	UpdateSpecialty(ctx context.Context, id int64, in doctor.SpecialtyInput) (*doctor.Specialty, error)
	DeleteSpecialty(ctx context.Context, id int64) error
	CreateDoctor(ctx context.Context, in doctor.DoctorInput) (*doctor.Doctor, error)
	UpdateDoctor(ctx context.Context, id int64, in doctor.DoctorInput) (*doctor.Doctor, error)
	ToggleDoctor(ctx context.Context, id int64) (*doctor.Doctor, error)
}

type LedgerService interface {
	Append(ctx context.Context, in appointment.NewEntry) (*appointment.Appointment, error)
	Load(ctx context.Context, ownerEmail string) []appointment.Appointment
	Cancel(ctx context.Context, id int64, ownerEmail string) (*appointment.Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status appointment.Status) (*appointment.Appointment, error)
	UpdateOwnStatus(ctx context.Context, id int64, ownerEmail string, status appointment.Status) (*appointment.Appointment, error)
	ListForDoctor(ctx context.Context, doctorName string, from time.Time) ([]appointment.Appointment, error)
}

// BookingService runs the booking steps. owner is the email of the caller;
// a session only answers to the account that started it.
type BookingService interface {
	Start(ctx context.Context, owner string) (*booking.Draft, error)
	Draft(ctx context.Context, sessionID, owner string) (*booking.Draft, error)
	Patch(ctx context.Context, sessionID, owner string, p booking.Patch) (*booking.Draft, error)
	ChooseDepartment(ctx context.Context, sessionID, owner string, in booking.DepartmentInput) (*booking.Draft, error)
	ChooseSchedule(ctx context.Context, sessionID, owner string, in booking.ScheduleInput) (*booking.Draft, error)
	SubmitPatient(ctx context.Context, sessionID, owner string, p booking.PatientRecord) (*booking.Draft, error)
	Confirm(ctx context.Context, sessionID, owner string) (*booking.Confirmation, error)
	Finish(ctx context.Context, sessionID, owner string) (*booking.Finished, error)
	Back(ctx context.Context, sessionID, owner string) (*booking.Draft, error)
	Reset(ctx context.Context, sessionID, owner string) error
	Receipt(ctx context.Context, sessionID, owner string) (*receipt.Document, error)
}

type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.Session, error)
	Login(ctx context.Context, in auth.LoginInput) (*auth.Session, error)
}

type RouterConfig struct {
	Doctors  DoctorService
	Ledger   LedgerService
	Booking  BookingService
	Auth     AuthService
	Tokens   *auth.Tokens
	Health   *HealthHandler
	Metrics  HTTPObserver
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger, cfg.Metrics))
	r.Use(RecoveryMiddleware(cfg.Logger))

	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Post("/auth/register", registerHandler(cfg.Auth))
	r.Post("/auth/login", loginHandler(cfg.Auth))

	// Catalog
	r.Get("/specialties", listSpecialtiesHandler(cfg.Doctors))
	r.Get("/specialties/{id}/doctors", doctorsBySpecialtyHandler(cfg.Doctors))
	r.Get("/doctors", listDoctorsHandler(cfg.Doctors))
	r.Get("/doctors/search", searchDoctorsHandler(cfg.Doctors))
	r.Get("/doctors/{id}", getDoctorHandler(cfg.Doctors))
	r.Get("/doctors/{id}/availability", availabilityHandler(cfg.Doctors))

	requireAuth := auth.RequireAuth(cfg.Tokens, writeError)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Post("/appointments", createAppointmentHandler(cfg.Ledger))
		r.Get("/appointments/mine", myAppointmentsHandler(cfg.Ledger))
		r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Ledger))

		r.Get("/history", historyHandler(cfg.Ledger))
		r.Patch("/history/{id}/status", historyStatusHandler(cfg.Ledger))

		r.Route("/booking", func(r chi.Router) {
			r.Post("/start", startBookingHandler(cfg.Booking))
			r.Get("/draft", getDraftHandler(cfg.Booking))
			r.Patch("/draft", patchDraftHandler(cfg.Booking))
			r.Post("/department", departmentStepHandler(cfg.Booking))
			r.Post("/schedule", scheduleStepHandler(cfg.Booking))
			r.Post("/patient", patientStepHandler(cfg.Booking))
			r.Post("/confirm", confirmBookingHandler(cfg.Booking))
			r.Post("/finish", finishBookingHandler(cfg.Booking))
			r.Post("/back", backStepHandler(cfg.Booking))
			r.Post("/reset", resetBookingHandler(cfg.Booking))
			r.Get("/receipt", receiptHandler(cfg.Booking))
		})

		r.With(auth.RequireRole(writeError, auth.RoleDoctor)).
			Get("/doctor/appointments", doctorAppointmentsHandler(cfg.Ledger))

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireRole(writeError, auth.RoleAdmin))

			r.Post("/specialties", createSpecialtyHandler(cfg.Doctors))
			r.Put("/specialties/{id}", updateSpecialtyHandler(cfg.Doctors))
			r.Delete("/specialties/{id}", deleteSpecialtyHandler(cfg.Doctors))
			r.Post("/doctors", createDoctorHandler(cfg.Doctors))
			r.Put("/doctors/{id}", updateDoctorHandler(cfg.Doctors))
			r.Post("/doctors/{id}/toggle", toggleDoctorHandler(cfg.Doctors))
			r.Patch("/appointments/{id}/status", adminStatusHandler(cfg.Ledger))
		})
	})

	return r
}
