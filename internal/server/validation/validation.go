// Package validation checks incoming sign-up and sign-in payloads. Each field
// is checked explicitly with go-playground/validator rules; failures are
// collected into a list rather than stopping at the first one.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authservice/internal/common"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const (
	nameRule     = "required,min=3,max=20"
	emailRule    = "required,email"
	passwordRule = "required,min=8,max=20"
)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is a non-empty list of field errors. It matches
// common.ErrorValidation under errors.Is.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e Errors) Is(target error) bool { return target == common.ErrorValidation }

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func SignUp(name, email, password string) error {
	return collect(
		check("name", name, nameRule),
		check("email", email, emailRule),
		check("password", password, passwordRule),
	)
}

func SignIn(email, password string) error {
	return collect(
		check("email", email, emailRule),
		check("password", password, passwordRule),
	)
}

func check(field, value, rule string) *FieldError {
	err := validate.Var(value, rule)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &FieldError{Field: field, Message: fmt.Sprintf("The %s field is invalid.", field)}
	}

	fe := verrs[0]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("The %s field is required.", field)
	case "email":
		msg = fmt.Sprintf("The %s must be a valid email address.", field)
	case "min":
		msg = fmt.Sprintf("The %s must be at least %s characters.", field, fe.Param())
	case "max":
		msg = fmt.Sprintf("The %s must be at most %s characters.", field, fe.Param())
	default:
		msg = fmt.Sprintf("The %s field is invalid.", field)
	}
	return &FieldError{Field: field, Message: msg}
}

func collect(checks ...*FieldError) error {
	var errs Errors
	for _, fe := range checks {
		if fe != nil {
			errs = append(errs, *fe)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
