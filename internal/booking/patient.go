package booking

import (
	"strings"
	"time"

	"github.com/hackgods/clinic-booking/internal/validate"
)

// PatientRecord is the identification data collected by the patient step.
type PatientRecord struct {
	Prefix      string `json:"prefix"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"date_of_birth"`
	Nationality string `json:"nationality"`
	CitizenID   string `json:"citizen_id"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Consent     bool   `json:"consent"`
}

func (p PatientRecord) FullName() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Prefix, p.FirstName, p.LastName} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func (p PatientRecord) Validate() error {
	errs := validate.Errors{}
	errs.Required("first_name", p.FirstName)
	errs.Required("last_name", p.LastName)
	errs.Required("citizen_id", p.CitizenID)
	errs.Required("phone", p.Phone)
	errs.Required("email", p.Email)
	errs.Digits("citizen_id", p.CitizenID, 13, 13)
	errs.Digits("phone", p.Phone, 9, 10)
	errs.Email("email", p.Email)
	if p.DateOfBirth != "" {
		if _, err := time.Parse("2006-01-02", p.DateOfBirth); err != nil {
			errs.Add("date_of_birth", "must be YYYY-MM-DD")
		}
	}
	if !p.Consent {
		errs.Add("consent", "must be accepted")
	}
	return errs.Err()
}
