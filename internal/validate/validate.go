// Package validate collects per-field validation messages.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	digitsOnly   = regexp.MustCompile(`^[0-9]+$`)
)

// Errors maps a field name to its message. A non-empty Errors is an error.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has a message.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e Errors) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.Add(field, "is required")
	}
}

func (e Errors) Email(field, value string) {
	if value != "" && !emailPattern.MatchString(value) {
		e.Add(field, "must be a valid email address")
	}
}

// Digits requires between min and max ASCII digits.
func (e Errors) Digits(field, value string, min, max int) {
	if value == "" {
		return
	}
	if !digitsOnly.MatchString(value) || len(value) < min || len(value) > max {
		if min == max {
			e.Add(field, fmt.Sprintf("must be exactly %d digits", min))
			return
		}
		e.Add(field, fmt.Sprintf("must be %d-%d digits", min, max))
	}
}

func (e Errors) MinLength(field, value string, n int) {
	if len([]rune(value)) < n {
		e.Add(field, fmt.Sprintf("must be at least %d characters", n))
	}
}

// Err returns nil when nothing was recorded.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
