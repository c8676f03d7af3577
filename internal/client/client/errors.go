package client

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotSignedIn  = errors.New("not signed in")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx response from the server. A 401 matches
// ErrUnauthorized under errors.Is.
type APIError struct {
	Status  int
	Message string
	Errors  []FieldError
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%d: %s", e.Status, e.Message)
	if len(e.Errors) == 0 {
		return msg
	}
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Message
	}
	return msg + " (" + strings.Join(parts, " ") + ")"
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == 401
}
