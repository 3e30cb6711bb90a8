package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate is the shared struct validator. Besides the built-in tags it
// knows notblank, basic_email (local@domain.tld), phone and subscription.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their json names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("basic_email", func(fl validator.FieldLevel) bool {
		return IsValidEmail(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsValidPhone(NormalizePhone(fl.Field().String()))
	})
	_ = v.RegisterValidation("subscription", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "monthly", "yearly", "trial", "lifetime":
			return true
		}
		return false
	})
	return v
}

var fieldMessages = map[string]string{
	"required":         "is required!",
	"required_without": "is required!",
	"basic_email":      "must be a valid email address!",
	"phone":            "must be a valid mobile number!",
	"subscription":     "must be one of monthly, yearly, trial, lifetime!",
	"gt":               "must be greater than 0!",
	"min":              "is too short!",
	"len":              "has the wrong length!",
	"numeric":          "must contain only digits!",
	"notblank":         "must not be blank!",
}

// ValidationErrors turns a validator error into a field -> message map.
// It returns nil for nil and for errors that are not validation errors.
func ValidationErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Tag()]
		if !ok {
			msg = "is invalid!"
		}
		if fe.Tag() == "min" {
			msg = "must be at least " + fe.Param() + " characters long!"
		}
		out[fe.Field()] = fe.Field() + " " + msg
	}
	return out
}
