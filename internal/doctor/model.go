package doctor

import (
	"strconv"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type Specialty struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Doctor struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	SpecialtyID    *int64    `json:"specialty_id,omitempty"`
	Department     string    `json:"department"`
	Gender         Gender    `json:"gender"`
	Education      string    `json:"education"`
	Languages      []string  `json:"languages"`
	Description    string    `json:"description"`
	TimeSlots      []string  `json:"time_slots"`
	AvailableDates []string  `json:"available_dates"`
	NextAvailable  bool      `json:"next_available"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Key is the identifier the availability generator is keyed by.
func (d Doctor) Key() string {
	return strconv.FormatInt(d.ID, 10)
}

// DoctorInput carries the admin-editable fields of a doctor.
type DoctorInput struct {
	Name           string   `json:"name"`
	SpecialtyID    *int64   `json:"specialty_id,omitempty"`
	Department     string   `json:"department"`
	Gender         Gender   `json:"gender"`
	Education      string   `json:"education"`
	Languages      []string `json:"languages"`
	Description    string   `json:"description"`
	TimeSlots      []string `json:"time_slots"`
	AvailableDates []string `json:"available_dates"`
}

type SpecialtyInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
