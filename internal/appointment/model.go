package appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/hackgods/clinic-booking/internal/receipt"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

var statusColors = map[Status]string{
	StatusPending:   "#F5A623",
	StatusConfirmed: "#2E7D32",
	StatusCompleted: "#1565C0",
	StatusCancelled: "#C62828",
}

func (s Status) Valid() bool {
	_, ok := statusColors[s]
	return ok
}

// Color is the display colour paired with the status.
func (s Status) Color() string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return "#757575"
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

const (
	TypeAuto   = "AUTO"
	TypeManual = "MANUAL"
)

// Appointment is a booking history entry. Date is YYYY-MM-DD, Time a clinic
// hour label such as "9:00-10:00".
type Appointment struct {
	ID              int64     `json:"id"`
	QueueNumber     int64     `json:"queue_number"`
	PatientName     string    `json:"patient_name"`
	DoctorName      string    `json:"doctor_name"`
	Department      string    `json:"department"`
	AppointmentType string    `json:"appointment_type"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	Status          Status    `json:"status"`
	OwnerEmail      string    `json:"owner_email"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (a Appointment) QueueLabel() string {
	return receipt.FormatQueueNumber(a.QueueNumber)
}

// NewEntry is what callers supply to Append; queue number and timestamps are assigned.
type NewEntry struct {
	PatientName     string `json:"patient_name"`
	DoctorName      string `json:"doctor_name"`
	Department      string `json:"department"`
	AppointmentType string `json:"appointment_type"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Status          Status `json:"status,omitempty"`
	OwnerEmail      string `json:"-"`
}
