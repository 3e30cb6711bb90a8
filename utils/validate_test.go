package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Name     string  `json:"name" validate:"required,notblank"`
	Email    string  `json:"email" validate:"required,basic_email"`
	Phone    string  `json:"phone" validate:"required,phone"`
	Password string  `json:"password" validate:"required,min=8"`
	Plan     string  `json:"subscriptionType" validate:"omitempty,subscription"`
	Amount   float64 `json:"amount" validate:"gt=0"`
}

func TestValidate_Passes(t *testing.T) {
	err := Validate.Struct(signupForm{
		Name: "Alice", Email: "alice@x.com", Phone: "98765 43210", Password: "secret123", Amount: 1,
	})
	assert.NoError(t, err)
	assert.Nil(t, ValidationErrors(err))
}

func TestValidate_CollectsFieldMessages(t *testing.T) {
	err := Validate.Struct(signupForm{Name: "  ", Email: "alice@x", Phone: "12", Password: "short", Plan: "weekly"})
	require.Error(t, err)

	fields := ValidationErrors(err)
	assert.Equal(t, "name must not be blank!", fields["name"])
	assert.Equal(t, "email must be a valid email address!", fields["email"])
	assert.Equal(t, "phone must be a valid mobile number!", fields["phone"])
	assert.Equal(t, "password must be at least 8 characters long!", fields["password"])
	assert.Equal(t, "subscriptionType must be one of monthly, yearly, trial, lifetime!", fields["subscriptionType"])
	assert.Equal(t, "amount must be greater than 0!", fields["amount"])
}
