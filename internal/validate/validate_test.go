package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsEmptyIsNil(t *testing.T) {
	errs := Errors{}
	errs.Required("name", "Somchai")
	errs.Email("email", "somchai@example.com")
	errs.Digits("phone", "0812345678", 9, 10)

	assert.NoError(t, errs.Err())
}

func TestErrorsCollectsFirstMessagePerField(t *testing.T) {
	errs := Errors{}
	errs.Required("citizen_id", "")
	errs.Digits("citizen_id", "", 13, 13)
	errs.Digits("phone", "12ab", 9, 10)
	errs.Email("email", "not-an-email")

	err := errs.Err()
	var got Errors
	assert.True(t, errors.As(err, &got))
	assert.Equal(t, "is required", got["citizen_id"])
	assert.Equal(t, "must be 9-10 digits", got["phone"])
	assert.Equal(t, "must be a valid email address", got["email"])
	assert.Equal(t, "validation failed: citizen_id: is required; email: must be a valid email address; phone: must be 9-10 digits", err.Error())
}

func TestDigitsExact(t *testing.T) {
	errs := Errors{}
	errs.Digits("citizen_id", "12345", 13, 13)
	assert.Equal(t, "must be exactly 13 digits", errs["citizen_id"])
}

func TestMinLength(t *testing.T) {
	errs := Errors{}
	errs.MinLength("password", "abc", 6)
	assert.Contains(t, errs, "password")
}
