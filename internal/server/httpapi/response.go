package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authservice/internal/common"
	"github.com/dmitrijs2005/authservice/internal/server/validation"
)

type dataEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Message string                  `json:"message"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, dataEnvelope{Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorEnvelope{Message: msg})
}

// writeError maps a service error to a status code. msg401 is the generic
// message used for unauthorized responses.
func writeError(w http.ResponseWriter, err error, msg401 string) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, errorEnvelope{Message: "Validation failed", Errors: verrs})
	case errors.Is(err, common.ErrorConflict):
		writeMessage(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, common.ErrorUnauthorized):
		writeMessage(w, http.StatusUnauthorized, msg401)
	case errors.Is(err, common.ErrorNotFound):
		writeMessage(w, http.StatusNotFound, "Not found")
	default:
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}
