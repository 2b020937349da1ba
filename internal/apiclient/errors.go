package apiclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/erazemk/materiais/internal/model"
)

// Error is a failed backend call. Kind is one of the model error sentinels
// and Message is the server-provided text, if any.
type Error struct {
	Status  int
	Message string
	Kind    error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	if e.Message == "" {
		return fmt.Sprintf("%v (status %d)", e.Kind, e.Status)
	}
	return fmt.Sprintf("%v (status %d): %s", e.Kind, e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.Kind }

// kindForStatus maps an HTTP status onto the error taxonomy.
func kindForStatus(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return model.ErrValidation
	case http.StatusUnauthorized:
		return model.ErrAuth
	case http.StatusForbidden:
		return model.ErrForbidden
	case http.StatusNotFound:
		return model.ErrNotFound
	default:
		return model.ErrServer
	}
}

// Message returns the server-provided message carried by err, or fallback
// when there is none.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status != 0 && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
