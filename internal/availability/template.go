package availability

import "time"

// SlotTemplate is a nominal clinic hour. Threshold is compared against the
// per-day hash; higher thresholds make a slot busier.
type SlotTemplate struct {
	Label     string
	Threshold int
}

// WeeklyTemplate maps a weekday to the hours a doctor holds clinic.
// Weekdays that are absent have no clinic.
type WeeklyTemplate map[time.Weekday][]SlotTemplate

// DefaultTemplate is used for doctors without their own entry in the catalog.
var DefaultTemplate = WeeklyTemplate{
	time.Monday:    {{"9:00-10:00", 30}, {"10:00-11:00", 40}, {"11:00-12:00", 50}},
	time.Tuesday:   {{"9:00-10:00", 30}, {"10:00-11:00", 40}, {"11:00-12:00", 50}},
	time.Wednesday: {{"9:00-10:00", 30}, {"10:00-11:00", 40}, {"11:00-12:00", 50}},
	time.Thursday:  {{"9:00-10:00", 30}, {"10:00-11:00", 40}, {"11:00-12:00", 50}},
	time.Friday:    {{"9:00-10:00", 30}, {"10:00-11:00", 40}},
}

// Catalog holds the demo weekly templates keyed by doctor id.
type Catalog map[string]WeeklyTemplate

// DefaultCatalog mirrors the demo doctors created by cmd/seed.
var DefaultCatalog = Catalog{
	"1": {
		time.Monday:   {{"9:00-10:00", 20}, {"10:00-11:00", 35}, {"13:00-14:00", 60}},
		time.Tuesday:  {{"9:00-10:00", 20}, {"10:00-11:00", 35}},
		time.Thursday: {{"13:00-14:00", 40}, {"14:00-15:00", 55}, {"15:00-16:00", 70}},
		time.Saturday: {{"9:00-10:00", 50}},
	},
	"2": {
		time.Monday:    {{"13:00-14:00", 30}, {"14:00-15:00", 45}},
		time.Wednesday: {{"9:00-10:00", 25}, {"10:00-11:00", 40}, {"11:00-12:00", 65}},
		time.Friday:    {{"9:00-10:00", 25}, {"10:00-11:00", 40}},
	},
	"3": {
		time.Tuesday:  {{"16:00-17:00", 30}, {"17:00-18:00", 45}, {"18:00-19:00", 60}},
		time.Thursday: {{"16:00-17:00", 30}, {"17:00-18:00", 45}},
		time.Sunday:   {{"9:00-10:00", 35}, {"10:00-11:00", 50}},
	},
	"4": {
		time.Monday:    {{"8:00-9:00", 15}, {"9:00-10:00", 30}},
		time.Tuesday:   {{"8:00-9:00", 15}, {"9:00-10:00", 30}},
		time.Wednesday: {{"8:00-9:00", 15}, {"9:00-10:00", 30}},
		time.Thursday:  {{"8:00-9:00", 15}, {"9:00-10:00", 30}},
		time.Friday:    {{"8:00-9:00", 15}, {"9:00-10:00", 30}},
	},
}

// Template returns the doctor's weekly template, or DefaultTemplate.
func (c Catalog) Template(doctorID string) WeeklyTemplate {
	if t, ok := c[doctorID]; ok {
		return t
	}
	return DefaultTemplate
}
