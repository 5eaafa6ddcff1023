package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/availability"
	"github.com/hackgods/clinic-booking/internal/validate"
)

var ErrNoDoctorAvailable = errors.New("no doctor available for the requested slot")

// BookingLookup reports slots already taken by real appointments.
type BookingLookup interface {
	BookedSlots(ctx context.Context, doctorName string, from, to time.Time) (availability.Booked, error)
}

type Service struct {
	repo      Repository
	generator *availability.Generator
	bookings  BookingLookup
	logger    zerolog.Logger
}

func NewService(repo Repository, generator *availability.Generator, bookings BookingLookup, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		generator: generator,
		bookings:  bookings,
		logger:    logger,
	}
}

// ListDoctors returns active doctors narrowed by c.
func (s *Service) ListDoctors(ctx context.Context, c Criteria) ([]Doctor, error) {
	doctors, err := s.repo.ListDoctors(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return Filter(doctors, c), nil
}

// ListAllDoctors includes inactive doctors, for the admin screens.
func (s *Service) ListAllDoctors(ctx context.Context) ([]Doctor, error) {
	doctors, err := s.repo.ListDoctors(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

func (s *Service) Search(ctx context.Context, query string) ([]Doctor, error) {
	return s.ListDoctors(ctx, Criteria{Query: query})
}

func (s *Service) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	d, err := s.repo.GetDoctor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return d, nil
}

func (s *Service) ListBySpecialty(ctx context.Context, specialtyID int64) ([]Doctor, error) {
	if _, err := s.repo.GetSpecialty(ctx, specialtyID); err != nil {
		return nil, fmt.Errorf("get specialty: %w", err)
	}
	doctors, err := s.repo.ListDoctorsBySpecialty(ctx, specialtyID)
	if err != nil {
		return nil, fmt.Errorf("list doctors by specialty: %w", err)
	}
	return doctors, nil
}

// Week returns the doctor's 7-day schedule from anchor with real bookings overlaid.
func (s *Service) Week(ctx context.Context, id int64, anchor time.Time) ([]availability.DaySchedule, error) {
	d, err := s.repo.GetDoctor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return s.week(ctx, *d, availability.WeekFrom(anchor)), nil
}

func (s *Service) week(ctx context.Context, d Doctor, dates []time.Time) []availability.DaySchedule {
	days := s.generator.Generate(d.Key(), dates)
	if s.bookings == nil || len(dates) == 0 {
		return days
	}

	booked, err := s.bookings.BookedSlots(ctx, d.Name, dates[0], dates[len(dates)-1])
	if err != nil {
		s.logger.Warn().Err(err).Int64("doctor_id", d.ID).Msg("booked slots unavailable, showing generated schedule")
		return days
	}
	return availability.Overlay(days, booked)
}

// Assign picks the first active doctor of department who is free at date/time.
func (s *Service) Assign(ctx context.Context, department string, date time.Time, timeLabel string) (*Doctor, error) {
	doctors, err := s.ListDoctors(ctx, Criteria{Department: department})
	if err != nil {
		return nil, err
	}

	for _, d := range doctors {
		day := s.week(ctx, d, []time.Time{date})[0]
		for _, slot := range day.Slots {
			if slot.Time == timeLabel && slot.Available {
				d := d
				return &d, nil
			}
		}
	}
	return nil, ErrNoDoctorAvailable
}

// Check confirms that doctorName is an active doctor of department with an
// open slot at date/time. A taken slot is ErrNoDoctorAvailable; an unknown
// doctor or a time the doctor never works is a field error.
func (s *Service) Check(ctx context.Context, department, doctorName string, date time.Time, timeLabel string) (*Doctor, error) {
	doctors, err := s.ListDoctors(ctx, Criteria{Department: department})
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(doctorName)
	for _, d := range doctors {
		if !strings.EqualFold(d.Name, name) {
			continue
		}
		day := s.week(ctx, d, []time.Time{date})[0]
		for _, slot := range day.Slots {
			if slot.Time != timeLabel {
				continue
			}
			if !slot.Available {
				return nil, fmt.Errorf("%s at %s %s: %w", d.Name, date.Format(availability.DateLayout), timeLabel, ErrNoDoctorAvailable)
			}
			d := d
			return &d, nil
		}
		return nil, validate.Errors{"time": "is not a clinic slot of this doctor on that date"}
	}
	return nil, validate.Errors{"doctor_name": "is not an active doctor of this department"}
}

// Admin

func validateDoctor(in DoctorInput) error {
	errs := validate.Errors{}
	errs.Required("name", in.Name)
	errs.Required("department", in.Department)
	if in.Gender != "" && in.Gender != GenderMale && in.Gender != GenderFemale {
		errs.Add("gender", "must be male or female")
	}
	for _, d := range in.AvailableDates {
		if _, err := time.Parse(availability.DateLayout, d); err != nil {
			errs.Add("available_dates", "dates must be YYYY-MM-DD")
			break
		}
	}
	return errs.Err()
}

func (s *Service) CreateDoctor(ctx context.Context, in DoctorInput) (*Doctor, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateDoctor(in); err != nil {
		return nil, err
	}
	d, err := s.repo.CreateDoctor(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	s.logger.Info().Int64("doctor_id", d.ID).Str("department", d.Department).Msg("doctor created")
	return d, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, id int64, in DoctorInput) (*Doctor, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateDoctor(in); err != nil {
		return nil, err
	}
	d, err := s.repo.UpdateDoctor(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("update doctor: %w", err)
	}
	return d, nil
}

func (s *Service) ToggleDoctor(ctx context.Context, id int64) (*Doctor, error) {
	d, err := s.repo.ToggleDoctorActive(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("toggle doctor: %w", err)
	}
	s.logger.Info().Int64("doctor_id", d.ID).Bool("active", d.Active).Msg("doctor status toggled")
	return d, nil
}

func (s *Service) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	specs, err := s.repo.ListSpecialties(ctx)
	if err != nil {
		return nil, fmt.Errorf("list specialties: %w", err)
	}
	return specs, nil
}

func validateSpecialty(in SpecialtyInput) error {
	errs := validate.Errors{}
	errs.Required("name", in.Name)
	return errs.Err()
}

func (s *Service) CreateSpecialty(ctx context.Context, in SpecialtyInput) (*Specialty, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateSpecialty(in); err != nil {
		return nil, err
	}
	spec, err := s.repo.CreateSpecialty(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create specialty: %w", err)
	}
	return spec, nil
}

func (s *Service) UpdateSpecialty(ctx context.Context, id int64, in SpecialtyInput) (*Specialty, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateSpecialty(in); err != nil {
		return nil, err
	}
	spec, err := s.repo.UpdateSpecialty(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("update specialty: %w", err)
	}
	return spec, nil
}

func (s *Service) DeleteSpecialty(ctx context.Context, id int64) error {
	if err := s.repo.DeleteSpecialty(ctx, id); err != nil {
		return fmt.Errorf("delete specialty: %w", err)
	}
	return nil
}
