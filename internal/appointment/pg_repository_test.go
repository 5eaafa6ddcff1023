package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "queue_number", "patient_name", "doctor_name", "department",
	"appointment_type", "date", "time", "status", "owner_email", "created_at", "updated_at"}

func TestPgInsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	date := time.Date(2025, 9, 23, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(int64(7), "Somchai", "Dr. Anan", "กระดูกและข้อ", TypeAuto, pgxmock.AnyArg(), "9:00-10:00", "CONFIRMED", "a@example.com").
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(1), int64(7), "Somchai", "Dr. Anan", "กระดูกและข้อ", TypeAuto, date, "9:00-10:00", "CONFIRMED", "a@example.com", now, now))

	repo := NewPgRepository(mock)
	appt, err := repo.Insert(context.Background(), Appointment{
		QueueNumber:     7,
		PatientName:     "Somchai",
		DoctorName:      "Dr. Anan",
		Department:      "กระดูกและข้อ",
		AppointmentType: TypeAuto,
		Date:            "2025-09-23",
		Time:            "9:00-10:00",
		Status:          StatusConfirmed,
		OwnerEmail:      "a@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-09-23", appt.Date)
	assert.Equal(t, StatusConfirmed, appt.Status)
	assert.Equal(t, "007", appt.QueueLabel())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgInsertRejectsBadDate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgRepository(mock)
	_, err = repo.Insert(context.Background(), Appointment{Date: "tomorrow"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgUpdateStatusNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("UPDATE appointments").
		WithArgs(int64(9), "CANCELLED").
		WillReturnError(pgx.ErrNoRows)

	repo := NewPgRepository(mock)
	_, err = repo.UpdateStatus(context.Background(), 9, StatusCancelled)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgCompleteBefore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE appointments").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	repo := NewPgRepository(mock)
	n, err := repo.CompleteBefore(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgMaxQueueNumber(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT coalesce\(max\(queue_number\), 0\) FROM appointments`).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(int64(41)))

	repo := NewPgRepository(mock)
	n, err := repo.MaxQueueNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(41), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
