package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/hospital-api/internal/model"
)

// RegisterCustom adds the domain tags to an existing engine, such as the
// one gin uses for `binding` tags.
func RegisterCustom(v *validator.Validate) {
	_ = v.RegisterValidation("isodate", isoDate)
	_ = v.RegisterValidation("role", role)
}

func isoDate(fl validator.FieldLevel) bool {
	_, err := model.ParseDate(fl.Field().String())
	return err == nil
}

func role(fl validator.FieldLevel) bool {
	return model.Role(fl.Field().String()).Valid()
}

// Describe renders one field error as a user-facing sentence.
func Describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
	case "isodate":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "role":
		return fmt.Sprintf("%s must be one of admin, doctor, patient", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid id", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}
