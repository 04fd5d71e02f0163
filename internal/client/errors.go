package client

import (
	"errors"
	"fmt"

	"github.com/erazemk/zaloga/internal/model"
)

// Error kinds. Every *APIError wraps exactly one of them.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrServer        = errors.New("server error")
	ErrRequestFailed = errors.New("request failed")
)

// User facing messages for failures the server does not describe.
const (
	MsgUnauthorized  = "Session expired. Please log in again."
	MsgForbidden     = "You do not have permission to perform this action."
	MsgServer        = "Server error. Please try again later."
	MsgRequestFailed = "Request failed"
)

// APIError is returned for any request the API did not complete successfully.
type APIError struct {
	Kind     error
	Endpoint string
	Status   int
	Message  string
	Errors   model.FieldErrors
}

func (e *APIError) Error() string {
	if e.Endpoint == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
}

func (e *APIError) Unwrap() error { return e.Kind }

// Message returns the user facing message carried by err, or err's text.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// FieldErrors returns the per-field validation messages carried by err, if any.
func FieldErrors(err error) model.FieldErrors {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Errors
	}
	return nil
}
