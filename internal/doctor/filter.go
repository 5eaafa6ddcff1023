package doctor

import (
	"strings"
	"sync"
)

// Criteria is a set of optional predicates. Zero values are inactive.
type Criteria struct {
	Query         string `json:"q,omitempty"`
	Gender        Gender `json:"gender,omitempty"`
	Department    string `json:"department,omitempty"`
	TimeSlot      string `json:"time,omitempty"`
	Date          string `json:"date,omitempty"`
	AvailableOnly bool   `json:"available,omitempty"`
}

func (c Criteria) IsEmpty() bool {
	return c == Criteria{}
}

// Match reports whether d satisfies every active predicate.
func (c Criteria) Match(d Doctor) bool {
	if q := strings.TrimSpace(c.Query); q != "" {
		q = strings.ToLower(q)
		if !strings.Contains(strings.ToLower(d.Name), q) &&
			!strings.Contains(strings.ToLower(d.Department), q) {
			return false
		}
	}
	if c.Gender != "" && d.Gender != c.Gender {
		return false
	}
	if c.Department != "" && d.Department != c.Department {
		return false
	}
	if c.TimeSlot != "" && !contains(d.TimeSlots, c.TimeSlot) {
		return false
	}
	if c.Date != "" && !contains(d.AvailableDates, c.Date) {
		return false
	}
	if c.AvailableOnly && !d.NextAvailable {
		return false
	}
	return true
}

// Filter narrows doctors to those matching c, keeping their relative order.
// Empty criteria return the input slice itself.
func Filter(doctors []Doctor, c Criteria) []Doctor {
	if c.IsEmpty() {
		return doctors
	}
	out := make([]Doctor, 0, len(doctors))
	for _, d := range doctors {
		if c.Match(d) {
			out = append(out, d)
		}
	}
	return out
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// FilterSet separates the criteria being edited (staged) from the ones in
// effect (active). Apply commits staged to active.
type FilterSet struct {
	mu     sync.RWMutex
	staged Criteria
	active Criteria
}

func (f *FilterSet) Stage(c Criteria) {
	f.mu.Lock()
	f.staged = c
	f.mu.Unlock()
}

func (f *FilterSet) Apply() Criteria {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = f.staged
	return f.active
}

func (f *FilterSet) Reset() {
	f.mu.Lock()
	f.staged = Criteria{}
	f.active = Criteria{}
	f.mu.Unlock()
}

func (f *FilterSet) Active() Criteria {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.active
}

func (f *FilterSet) Staged() Criteria {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.staged
}

// Result filters by the active criteria.
func (f *FilterSet) Result(doctors []Doctor) []Doctor {
	return Filter(doctors, f.Active())
}

// Preview filters by the staged criteria without committing them.
func (f *FilterSet) Preview(doctors []Doctor) []Doctor {
	return Filter(doctors, f.Staged())
}
