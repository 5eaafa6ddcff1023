// Package availability generates deterministic demo schedules for doctors.
//
// Availability of a slot depends only on the doctor id and the date, so the
// same week always renders the same way.
package availability

import (
	"time"
	"unicode/utf16"
)

const DateLayout = "2006-01-02"

type Slot struct {
	Time                     string `json:"time"`
	Available                bool   `json:"available"`
	ConflictingAppointmentID *int64 `json:"conflicting_appointment_id,omitempty"`
}

type DaySchedule struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	Slots   []Slot `json:"slots"`
}

// NoClinic reports whether the doctor holds no clinic that day.
func (d DaySchedule) NoClinic() bool {
	return len(d.Slots) == 0
}

// Generator produces schedules from a template catalog.
type Generator struct {
	catalog Catalog
}

func NewGenerator(catalog Catalog) *Generator {
	if catalog == nil {
		catalog = Catalog{}
	}
	return &Generator{catalog: catalog}
}

// Generate returns one DaySchedule per entry of weekDates, in the same order.
func (g *Generator) Generate(doctorID string, weekDates []time.Time) []DaySchedule {
	tmpl := g.catalog.Template(doctorID)
	days := make([]DaySchedule, 0, len(weekDates))

	for _, date := range weekDates {
		day := DaySchedule{
			Date:    date.Format(DateLayout),
			Weekday: date.Weekday().String(),
			Slots:   []Slot{},
		}

		h := Hash(doctorID, date)
		for i, st := range tmpl[date.Weekday()] {
			score := (h + i*7) % 100
			slot := Slot{Time: st.Label, Available: score >= st.Threshold}
			if !slot.Available {
				id := int64(1000 + (h*13+i*37)%9000)
				slot.ConflictingAppointmentID = &id
			}
			day.Slots = append(day.Slots, slot)
		}
		days = append(days, day)
	}
	return days
}

// Hash folds "{doctorID}-{YYYY-MM-DD}" through a 32-bit h*31+c accumulator
// over UTF-16 code units and reduces it modulo 100.
func Hash(doctorID string, date time.Time) int {
	key := doctorID + "-" + date.Format(DateLayout)

	var h int32
	for _, c := range utf16.Encode([]rune(key)) {
		h = h*31 + int32(c)
	}

	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v % 100)
}

// WeekFrom returns the 7 consecutive dates starting at anchor (time of day dropped).
func WeekFrom(anchor time.Time) []time.Time {
	start := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location())
	week := make([]time.Time, 7)
	for i := range week {
		week[i] = start.AddDate(0, 0, i)
	}
	return week
}

// Booked maps date (YYYY-MM-DD) to time label to the appointment holding it.
type Booked map[string]map[string]int64

// Overlay returns a copy of days where slots present in booked are marked taken.
func Overlay(days []DaySchedule, booked Booked) []DaySchedule {
	out := make([]DaySchedule, len(days))
	for i, day := range days {
		out[i] = DaySchedule{Date: day.Date, Weekday: day.Weekday, Slots: make([]Slot, len(day.Slots))}
		copy(out[i].Slots, day.Slots)

		taken := booked[day.Date]
		if len(taken) == 0 {
			continue
		}
		for j, slot := range out[i].Slots {
			if id, ok := taken[slot.Time]; ok {
				id := id
				out[i].Slots[j] = Slot{Time: slot.Time, Available: false, ConflictingAppointmentID: &id}
			}
		}
	}
	return out
}

// IsAvailable reports whether the time label is open on the given date.
func (g *Generator) IsAvailable(doctorID string, date time.Time, label string) bool {
	day := g.Generate(doctorID, []time.Time{date})[0]
	for _, s := range day.Slots {
		if s.Time == label {
			return s.Available
		}
	}
	return false
}
