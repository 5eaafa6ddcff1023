package booking

import (
	"encoding/json"
	"time"
)

// DraftVersion is the schema version written by this build.
const DraftVersion = 1

type SelectionType string

const (
	SelectionAuto   SelectionType = "AUTO"
	SelectionManual SelectionType = "MANUAL"
)

func (s SelectionType) Valid() bool {
	return s == SelectionAuto || s == SelectionManual
}

// Step is the last step of the flow the draft has completed.
type Step string

const (
	StepStart      Step = ""
	StepDepartment Step = "department"
	StepSchedule   Step = "schedule"
	StepPatient    Step = "patient"
	StepConfirmed  Step = "confirmed"
	StepFinished   Step = "finished"
)

var stepOrder = []Step{
	StepStart,
	StepDepartment,
	StepSchedule,
	StepPatient,
	StepConfirmed,
	StepFinished,
}

func (s Step) rank() int {
	for i, st := range stepOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Step) previous() Step {
	r := s.rank()
	if r <= 0 {
		return StepStart
	}
	return stepOrder[r-1]
}

// Next is the step a client should show after s.
func (s Step) Next() Step {
	r := s.rank()
	if r < 0 || r+1 >= len(stepOrder) {
		return StepFinished
	}
	return stepOrder[r+1]
}

// Draft is the in-progress booking of one session.
type Draft struct {
	Version       int           `json:"version"`
	SessionID     string        `json:"session_id"`
	Step          Step          `json:"step"`
	Department    string        `json:"department,omitempty"`
	SelectionType SelectionType `json:"selection_type,omitempty"`
	DoctorName    string        `json:"doctor_name,omitempty"`
	Date          string        `json:"date,omitempty"`
	Time          string        `json:"time,omitempty"`
	Illness       string        `json:"illness,omitempty"`
	UpdatedAt     time.Time     `json:"updated_at"`

	// Email of the account that started the session.
	Owner string `json:"owner,omitempty"`

	// Set once the draft is retired by a confirmation.
	AppointmentID int64 `json:"appointment_id,omitempty"`
	QueueNumber   int64 `json:"queue_number,omitempty"`

	// Upload names are accepted by the schedule step but never stored.
	Attachments []string `json:"-"`

	// Fields written by other versions, carried through rewrites untouched.
	extra map[string]json.RawMessage
}

var draftKeys = []string{
	"version", "session_id", "step", "department", "selection_type", "doctor_name",
	"date", "time", "illness", "updated_at", "owner", "appointment_id", "queue_number",
}

type draftAlias Draft

func (d *Draft) UnmarshalJSON(b []byte) error {
	var a draftAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for _, k := range draftKeys {
		delete(raw, k)
	}

	*d = Draft(a)
	if len(raw) > 0 {
		d.extra = raw
	}
	return nil
}

func (d Draft) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(draftAlias(d))
	if err != nil || len(d.extra) == 0 {
		return b, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, v := range d.extra {
		if _, known := merged[k]; !known {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// normalize default-fills a draft read from storage so older or partial
// records never break a step.
func (d *Draft) normalize(sessionID string) {
	if d.Version == 0 {
		d.Version = DraftVersion
	}
	if d.SessionID == "" {
		d.SessionID = sessionID
	}
	if d.SelectionType != "" && !d.SelectionType.Valid() {
		d.SelectionType = ""
	}
	if d.Step.rank() < 0 {
		d.Step = StepStart
	}
}

// Patch is a field-level edit. Nil fields are left alone.
type Patch struct {
	Department    *string        `json:"department,omitempty"`
	SelectionType *SelectionType `json:"selection_type,omitempty"`
	DoctorName    *string        `json:"doctor_name,omitempty"`
	Date          *string        `json:"date,omitempty"`
	Time          *string        `json:"time,omitempty"`
	Illness       *string        `json:"illness,omitempty"`
}

func (d *Draft) apply(p Patch) {
	if p.Department != nil {
		d.Department = *p.Department
	}
	if p.SelectionType != nil {
		d.SelectionType = *p.SelectionType
	}
	if p.DoctorName != nil {
		d.DoctorName = *p.DoctorName
	}
	if p.Date != nil {
		d.Date = *p.Date
	}
	if p.Time != nil {
		d.Time = *p.Time
	}
	if p.Illness != nil {
		d.Illness = *p.Illness
	}
}

// View returns only the fields collected by the given step, which is what
// that step's page is allowed to show.
func (d Draft) View(step Step) map[string]string {
	v := map[string]string{}
	put := func(k, val string) {
		if val != "" {
			v[k] = val
		}
	}
	switch step {
	case StepDepartment:
		put("department", d.Department)
		put("selection_type", string(d.SelectionType))
	case StepSchedule:
		put("doctor_name", d.DoctorName)
		put("date", d.Date)
		put("time", d.Time)
		put("illness", d.Illness)
	}
	return v
}
