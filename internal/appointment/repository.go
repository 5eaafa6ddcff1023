package appointment

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the ledger.
type Repository interface {
	Insert(ctx context.Context, a Appointment) (*Appointment, error)
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	ListByOwner(ctx context.Context, ownerEmail string) ([]Appointment, error)

	// Doctor dashboard and availability overlay, cancelled rows excluded
	ListByDoctorBetween(ctx context.Context, doctorName string, from, to time.Time) ([]Appointment, error)
	CountActiveForSlot(ctx context.Context, doctorName, date, timeLabel string) (int, error)

	UpdateStatus(ctx context.Context, id int64, status Status) (*Appointment, error)

	// Completion worker
	CompleteBefore(ctx context.Context, day time.Time) (int64, error)

	// Highest queue number ever stored, 0 for an empty table
	MaxQueueNumber(ctx context.Context) (int64, error)
}
