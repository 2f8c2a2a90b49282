// Package apperr defines the error taxonomy shared by the lifecycle model,
// the repositories and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports a missing or malformed field. The user can fix
// the input and resubmit.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AuthorizationError reports an action attempted with the wrong role.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// NotFoundError reports an id that does not resolve.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// TransientError wraps a backend failure. Callers retry manually.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: temporarily unavailable: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// ConflictError reports a stale expected version on a status update.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// InFlightError rejects a second submission while the first is pending.
type InFlightError struct {
	Key string
}

func (e *InFlightError) Error() string { return "request already in progress" }

func Validation(field, msg string) error { return &ValidationError{Field: field, Message: msg} }
func Forbidden(msg string) error         { return &AuthorizationError{Message: msg} }
func NotFound(resource, id string) error { return &NotFoundError{Resource: resource, ID: id} }
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

// HTTPStatus maps an error onto the response status code.
func HTTPStatus(err error) int {
	var (
		ve *ValidationError
		ae *AuthorizationError
		ne *NotFoundError
		te *TransientError
		ce *ConflictError
		ie *InFlightError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ae):
		return http.StatusForbidden
	case errors.As(err, &ne):
		return http.StatusNotFound
	case errors.As(err, &ce), errors.As(err, &ie):
		return http.StatusConflict
	case errors.As(err, &te):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Message is the short user-facing text for err. Unknown errors are not
// echoed back to clients.
func Message(err error) string {
	var te *TransientError
	switch HTTPStatus(err) {
	case http.StatusInternalServerError:
		return "internal error"
	case http.StatusServiceUnavailable:
		if errors.As(err, &te) {
			return fmt.Sprintf("%s failed, please try again", te.Op)
		}
	}
	return err.Error()
}

// Kind is a stable label for err, used in metrics and logs.
func Kind(err error) string {
	var (
		ce *ConflictError
		ie *InFlightError
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &ie):
		return "in_flight"
	case errors.As(err, &ce):
		return "conflict"
	}
	switch HTTPStatus(err) {
	case http.StatusBadRequest:
		return "validation"
	case http.StatusForbidden:
		return "authorization"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusServiceUnavailable:
		return "transient"
	}
	return "internal"
}
