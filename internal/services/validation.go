package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/BradenHooton/roster/internal/models"
	"github.com/go-playground/validator/v10"
)

var validate = newEmployeeValidator()

func newEmployeeValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their json names so messages match what the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateEmployee checks the required fields of a normalized employee. The
// returned error is a *models.RecordError describing the first violation.
func validateEmployee(e *models.Employee, row int) error {
	err := validate.Struct(e)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return &models.RecordError{Row: row, Email: e.Email, Reason: err.Error()}
	}

	fe := ve[0]
	return &models.RecordError{
		Row:    row,
		Email:  e.Email,
		Field:  fe.Field(),
		Reason: fmt.Sprintf("%s %s", fe.Field(), validationMessage(fe)),
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must have a maximum of %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
