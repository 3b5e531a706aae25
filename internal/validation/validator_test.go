package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/engineeye/internal/apperr"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,max=10,username"`
	Password string `json:"password" validate:"required,min=6"`
}

type refuel struct {
	Liters float64 `json:"liters" validate:"gt=0"`
	Cost   float64 `json:"cost" validate:"gte=0"`
}

func TestValidator_Valid(t *testing.T) {
	v := New()
	err := v.Struct(signup{Email: "a@b.io", Username: "car_fan_1", Password: "secret"})
	assert.NoError(t, err)
}

func TestValidator_FieldErrors(t *testing.T) {
	v := New()
	err := v.Struct(signup{Email: "nope", Username: "Bad Name", Password: "123"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "must be a valid email address", appErr.Fields["email"])
	assert.Equal(t, "may only contain lower-case letters, digits and underscores", appErr.Fields["username"])
	assert.Equal(t, "must be at least 6 characters", appErr.Fields["password"])
}

func TestValidator_UsernameTooLong(t *testing.T) {
	v := New()
	err := v.Struct(signup{Email: "a@b.io", Username: "abcdefghijk", Password: "secret"})

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "must not exceed 10 characters", appErr.Fields["username"])
}

func TestValidator_NumericBounds(t *testing.T) {
	v := New()

	err := v.Struct(refuel{Liters: 0, Cost: -1})
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Fields, "liters")
	assert.Contains(t, appErr.Fields, "cost")

	assert.NoError(t, v.Struct(refuel{Liters: 40, Cost: 0}))
}
