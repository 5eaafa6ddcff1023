package appointment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/availability"
	redisclient "github.com/hackgods/clinic-booking/internal/redis"
	"github.com/hackgods/clinic-booking/internal/validate"
)

const (
	EventAppointmentCreated   = "APPOINTMENT_CREATED"
	EventAppointmentStatus    = "APPOINTMENT_STATUS_CHANGED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
)

var (
	ErrSlotAlreadyBooked       = errors.New("slot already has an active appointment")
	ErrSlotBeingBooked         = errors.New("slot is currently being booked, please retry")
	ErrInvalidStatus           = errors.New("invalid appointment status")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrNotOwner                = errors.New("appointment belongs to another user")
)

// Sequence issues queue numbers.
type Sequence interface {
	Next(ctx context.Context) (int64, error)
	EnsureAtLeast(ctx context.Context, n int64) (bool, error)
}

// Service is the booking history ledger.
type Service struct {
	repo   Repository
	seq    Sequence
	locker redisclient.Locker
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, seq Sequence, locker redisclient.Locker, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		seq:    seq,
		locker: locker,
		logger: logger,
		now:    time.Now,
	}
}

func validateEntry(in NewEntry) error {
	errs := validate.Errors{}
	errs.Required("patient_name", in.PatientName)
	errs.Required("doctor_name", in.DoctorName)
	errs.Required("department", in.Department)
	errs.Required("date", in.Date)
	errs.Required("time", in.Time)
	errs.Required("owner_email", in.OwnerEmail)
	if in.Date != "" {
		if _, err := time.Parse(availability.DateLayout, in.Date); err != nil {
			errs.Add("date", "must be YYYY-MM-DD")
		}
	}
	if in.Status != "" && !in.Status.Valid() {
		errs.Add("status", "unknown status")
	}
	return errs.Err()
}

func slotLockName(doctorName, date, timeLabel string) string {
	return fmt.Sprintf("slot:%s:%s:%s", doctorName, date, timeLabel)
}

// Append records a new booking for the owner and assigns its queue number.
// A doctor/date/time already held by an active appointment is rejected.
func (s *Service) Append(ctx context.Context, in NewEntry) (*Appointment, error) {
	in.OwnerEmail = strings.ToLower(strings.TrimSpace(in.OwnerEmail))
	if in.Status == "" {
		in.Status = StatusPending
	}
	if in.AppointmentType == "" {
		in.AppointmentType = TypeManual
	}
	if err := validateEntry(in); err != nil {
		return nil, err
	}

	var created *Appointment

	err := s.locker.WithLock(ctx, slotLockName(in.DoctorName, in.Date, in.Time), func(lockCtx context.Context) error {
		// Inside the critical section re-check for an active appointment on this slot
		n, err := s.repo.CountActiveForSlot(lockCtx, in.DoctorName, in.Date, in.Time)
		if err != nil {
			return fmt.Errorf("check slot: %w", err)
		}
		if n > 0 {
			return ErrSlotAlreadyBooked
		}

		queue, err := s.seq.Next(lockCtx)
		if err != nil {
			return fmt.Errorf("next queue number: %w", err)
		}

		appt, err := s.repo.Insert(lockCtx, Appointment{
			QueueNumber:     queue,
			PatientName:     in.PatientName,
			DoctorName:      in.DoctorName,
			Department:      in.Department,
			AppointmentType: in.AppointmentType,
			Date:            in.Date,
			Time:            in.Time,
			Status:          in.Status,
			OwnerEmail:      in.OwnerEmail,
		})
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}

		created = appt
		s.logEvent(appt, EventAppointmentCreated)
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	return created, nil
}

// UpdateStatus replaces the status of one entry. Any status may follow any
// other, but leaving CANCELLED claims the slot again and fails with
// ErrSlotAlreadyBooked when another active appointment holds it.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) (*Appointment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if status == StatusCancelled {
		return s.setStatus(ctx, id, status)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusCancelled {
		return s.setStatus(ctx, id, status)
	}

	var updated *Appointment
	err = s.locker.WithLock(ctx, slotLockName(current.DoctorName, current.Date, current.Time), func(lockCtx context.Context) error {
		n, err := s.repo.CountActiveForSlot(lockCtx, current.DoctorName, current.Date, current.Time)
		if err != nil {
			return fmt.Errorf("check slot: %w", err)
		}
		if n > 0 {
			return ErrSlotAlreadyBooked
		}
		updated, err = s.setStatus(lockCtx, id, status)
		return err
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}
	return updated, nil
}

func (s *Service) setStatus(ctx context.Context, id int64, status Status) (*Appointment, error) {
	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	s.logEvent(updated, EventAppointmentStatus)
	return updated, nil
}

// UpdateOwnStatus is UpdateStatus restricted to the owner's entries.
func (s *Service) UpdateOwnStatus(ctx context.Context, id int64, ownerEmail string, status Status) (*Appointment, error) {
	if _, err := s.owned(ctx, id, ownerEmail); err != nil {
		return nil, err
	}
	return s.UpdateStatus(ctx, id, status)
}

// Load returns the owner's history, newest first. Storage failures degrade
// to an empty list.
func (s *Service) Load(ctx context.Context, ownerEmail string) []Appointment {
	owner := strings.ToLower(strings.TrimSpace(ownerEmail))
	if owner == "" {
		return []Appointment{}
	}

	list, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		s.logger.Error().Err(err).Str("owner_email", owner).Msg("load history failed, returning empty list")
		return []Appointment{}
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

func (s *Service) Get(ctx context.Context, id int64) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func (s *Service) owned(ctx context.Context, id int64, ownerEmail string) (*Appointment, error) {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(appt.OwnerEmail, strings.TrimSpace(ownerEmail)) {
		return nil, ErrNotOwner
	}
	return appt, nil
}

// Cancel lets a patient cancel their own pending or confirmed appointment.
func (s *Service) Cancel(ctx context.Context, id int64, ownerEmail string) (*Appointment, error) {
	appt, err := s.owned(ctx, id, ownerEmail)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusPending && appt.Status != StatusConfirmed {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}
	s.logEvent(updated, EventAppointmentCancelled)
	return updated, nil
}

// ListForDoctor returns the doctor's non-cancelled appointments from the given day on.
func (s *Service) ListForDoctor(ctx context.Context, doctorName string, from time.Time) ([]Appointment, error) {
	list, err := s.repo.ListByDoctorBetween(ctx, doctorName, from, from.AddDate(1, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("list for doctor: %w", err)
	}
	return list, nil
}

// BookedSlots maps the doctor's active bookings between from and to by date and time.
func (s *Service) BookedSlots(ctx context.Context, doctorName string, from, to time.Time) (availability.Booked, error) {
	list, err := s.repo.ListByDoctorBetween(ctx, doctorName, from, to)
	if err != nil {
		return nil, fmt.Errorf("booked slots: %w", err)
	}

	booked := availability.Booked{}
	for _, a := range list {
		if booked[a.Date] == nil {
			booked[a.Date] = map[string]int64{}
		}
		booked[a.Date][a.Time] = a.ID
	}
	return booked, nil
}

// CompletePast is intended to be called by the worker periodically.
// Pending and confirmed appointments dated before today become completed.
func (s *Service) CompletePast(ctx context.Context) (int64, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	n, err := s.repo.CompleteBefore(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("complete past appointments: %w", err)
	}
	if n > 0 {
		s.logger.Info().Str("event", EventAppointmentCompleted).Int64("count", n).Msg("appointments completed")
	}
	return n, nil
}

// SyncQueue moves the queue sequence past the highest number in the ledger.
// Run it at startup: a Redis that lost its counter would otherwise reissue
// numbers the unique index rejects.
func (s *Service) SyncQueue(ctx context.Context) error {
	top, err := s.repo.MaxQueueNumber(ctx)
	if err != nil {
		return err
	}
	moved, err := s.seq.EnsureAtLeast(ctx, top)
	if err != nil {
		return err
	}
	if moved {
		s.logger.Warn().Int64("queue_number", top).Msg("queue counter was behind the ledger, raised")
	}
	return nil
}

func (s *Service) logEvent(appt *Appointment, eventType string) {
	s.logger.Info().
		Str("event", eventType).
		Int64("appointment_id", appt.ID).
		Str("queue_number", appt.QueueLabel()).
		Str("status", string(appt.Status)).
		Str("doctor_name", appt.DoctorName).
		Str("date", appt.Date).
		Str("time", appt.Time).
		Msg("appointment event")
}
