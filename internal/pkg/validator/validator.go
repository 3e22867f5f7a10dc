package validator

import (
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate runs struct tag validation over s.
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// GetValidator exposes the shared validator instance for callers that need
// to register custom validation functions.
func GetValidator() *validator.Validate {
	return validate
}
