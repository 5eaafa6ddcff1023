package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hackgods/clinic-booking/internal/availability"
	"github.com/hackgods/clinic-booking/internal/db"
)

const appointmentColumns = `id, queue_number, patient_name, doctor_name, department, appointment_type,
	date, time, status, owner_email, created_at, updated_at`

type PgRepository struct {
	db db.DBTX
}

func NewPgRepository(conn db.DBTX) *PgRepository {
	return &PgRepository{db: conn}
}

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var date time.Time
	var status string

	err := row.Scan(
		&a.ID,
		&a.QueueNumber,
		&a.PatientName,
		&a.DoctorName,
		&a.Department,
		&a.AppointmentType,
		&date,
		&a.Time,
		&status,
		&a.OwnerEmail,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Date = date.Format(availability.DateLayout)
	a.Status = Status(status)
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	result := []Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(availability.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}

// Interface methods

func (r *PgRepository) Insert(ctx context.Context, a Appointment) (*Appointment, error) {
	date, err := parseDate(a.Date)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments (queue_number, patient_name, doctor_name, department,
			appointment_type, date, time, status, owner_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+appointmentColumns,
		a.QueueNumber, a.PatientName, a.DoctorName, a.Department,
		a.AppointmentType, date, a.Time, string(a.Status), a.OwnerEmail)

	return scanAppointment(row)
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListByOwner(ctx context.Context, ownerEmail string) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE owner_email = $1
		ORDER BY created_at DESC, id DESC
	`, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("list appointments by owner: %w", err)
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListByDoctorBetween(ctx context.Context, doctorName string, from, to time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_name = $1
		  AND date BETWEEN $2 AND $3
		  AND status <> 'CANCELLED'
		ORDER BY date, time, queue_number
	`, doctorName, from, to)
	if err != nil {
		return nil, fmt.Errorf("list appointments by doctor: %w", err)
	}
	return collectAppointments(rows)
}

func (r *PgRepository) CountActiveForSlot(ctx context.Context, doctorName, date, timeLabel string) (int, error) {
	d, err := parseDate(date)
	if err != nil {
		return 0, err
	}

	var n int
	err = r.db.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE doctor_name = $1
		  AND date = $2
		  AND time = $3
		  AND status <> 'CANCELLED'
	`, doctorName, d, timeLabel).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count slot appointments: %w", err)
	}
	return n, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id int64, status Status) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns, id, string(status))

	return scanAppointment(row)
}

func (r *PgRepository) CompleteBefore(ctx context.Context, day time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET status = 'COMPLETED',
		    updated_at = now()
		WHERE date < $1
		  AND status IN ('PENDING', 'CONFIRMED')
	`, day)
	if err != nil {
		return 0, fmt.Errorf("complete past appointments: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) MaxQueueNumber(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT coalesce(max(queue_number), 0) FROM appointments`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("max queue number: %w", err)
	}
	return n, nil
}
