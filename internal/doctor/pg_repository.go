package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hackgods/clinic-booking/internal/db"
)

const doctorColumns = `id, name, specialty_id, department, gender, education, languages,
	description, time_slots, available_dates, next_available, active, created_at, updated_at`

const specialtyColumns = `id, name, description, created_at, updated_at`

type PgRepository struct {
	db db.DBTX
}

func NewPgRepository(conn db.DBTX) *PgRepository {
	return &PgRepository{db: conn}
}

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var gender string

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.SpecialtyID,
		&d.Department,
		&gender,
		&d.Education,
		&d.Languages,
		&d.Description,
		&d.TimeSlots,
		&d.AvailableDates,
		&d.NextAvailable,
		&d.Active,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.Gender = Gender(gender)
	return &d, nil
}

func scanSpecialty(row pgx.Row) (*Specialty, error) {
	var s Specialty

	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSpecialtyNotFound
		}
		return nil, err
	}
	return &s, nil
}

func collectDoctors(rows pgx.Rows) ([]Doctor, error) {
	defer rows.Close()

	result := []Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// Doctors

func (r *PgRepository) ListDoctors(ctx context.Context, includeInactive bool) ([]Doctor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE active OR $1
		ORDER BY id
	`, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return collectDoctors(rows)
}

func (r *PgRepository) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctorsBySpecialty(ctx context.Context, specialtyID int64) ([]Doctor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE specialty_id = $1 AND active
		ORDER BY id
	`, specialtyID)
	if err != nil {
		return nil, fmt.Errorf("list doctors by specialty: %w", err)
	}
	return collectDoctors(rows)
}

func (r *PgRepository) CreateDoctor(ctx context.Context, in DoctorInput) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO doctors (name, specialty_id, department, gender, education, languages,
			description, time_slots, available_dates, next_available, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true, true, now(), now())
		RETURNING `+doctorColumns,
		in.Name, in.SpecialtyID, in.Department, string(in.Gender), in.Education,
		nonNil(in.Languages), in.Description, nonNil(in.TimeSlots), nonNil(in.AvailableDates))
	return scanDoctor(row)
}

func (r *PgRepository) UpdateDoctor(ctx context.Context, id int64, in DoctorInput) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE doctors
		SET name = $2,
		    specialty_id = $3,
		    department = $4,
		    gender = $5,
		    education = $6,
		    languages = $7,
		    description = $8,
		    time_slots = $9,
		    available_dates = $10,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+doctorColumns,
		id, in.Name, in.SpecialtyID, in.Department, string(in.Gender), in.Education,
		nonNil(in.Languages), in.Description, nonNil(in.TimeSlots), nonNil(in.AvailableDates))
	return scanDoctor(row)
}

func (r *PgRepository) ToggleDoctorActive(ctx context.Context, id int64) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE doctors
		SET active = NOT active,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+doctorColumns, id)
	return scanDoctor(row)
}

// Specialties

func (r *PgRepository) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+specialtyColumns+`
		FROM specialties
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list specialties: %w", err)
	}
	defer rows.Close()

	result := []Specialty{}
	for rows.Next() {
		s, err := scanSpecialty(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) GetSpecialty(ctx context.Context, id int64) (*Specialty, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+specialtyColumns+`
		FROM specialties
		WHERE id = $1
	`, id)
	return scanSpecialty(row)
}

func (r *PgRepository) CreateSpecialty(ctx context.Context, in SpecialtyInput) (*Specialty, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO specialties (name, description, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		RETURNING `+specialtyColumns, in.Name, in.Description)

	s, err := scanSpecialty(row)
	if isUniqueViolation(err) {
		return nil, ErrSpecialtyExists
	}
	return s, err
}

func (r *PgRepository) UpdateSpecialty(ctx context.Context, id int64, in SpecialtyInput) (*Specialty, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE specialties
		SET name = $2,
		    description = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+specialtyColumns, id, in.Name, in.Description)

	s, err := scanSpecialty(row)
	if isUniqueViolation(err) {
		return nil, ErrSpecialtyExists
	}
	return s, err
}

func (r *PgRepository) DeleteSpecialty(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM specialties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete specialty: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSpecialtyNotFound
	}
	return nil
}
