package doctor

import (
	"context"
	"errors"
)

var (
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrSpecialtyNotFound = errors.New("specialty not found")
	ErrSpecialtyExists   = errors.New("specialty already exists")
)

// Repository contains all DB interactions needed by the catalog.
type Repository interface {
	ListDoctors(ctx context.Context, includeInactive bool) ([]Doctor, error)
	GetDoctor(ctx context.Context, id int64) (*Doctor, error)
	ListDoctorsBySpecialty(ctx context.Context, specialtyID int64) ([]Doctor, error)
	CreateDoctor(ctx context.Context, in DoctorInput) (*Doctor, error)
	UpdateDoctor(ctx context.Context, id int64, in DoctorInput) (*Doctor, error)
	ToggleDoctorActive(ctx context.Context, id int64) (*Doctor, error)

	ListSpecialties(ctx context.Context) ([]Specialty, error)
	GetSpecialty(ctx context.Context, id int64) (*Specialty, error)
	CreateSpecialty(ctx context.Context, in SpecialtyInput) (*Specialty, error)
	UpdateSpecialty(ctx context.Context, id int64, in SpecialtyInput) (*Specialty, error)
	DeleteSpecialty(ctx context.Context, id int64) error
}
