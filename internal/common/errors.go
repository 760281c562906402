package common

import (
	"errors"
	"net/http"

	"github.com/noah-isme/backend-stock/internal/pricing"
)

var (
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write clashes with existing state, e.g. a duplicate code.
	ErrConflict = errors.New("conflicting record")
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// BadRequest wraps a malformed request error.
func BadRequest(message string, err error) *AppError {
	return NewAppError("BAD_REQUEST", message, http.StatusBadRequest, err)
}

// WriteError renders err using the canonical error envelope. AppErrors keep
// their own code and status; domain sentinels map onto fixed statuses.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = "INTERNAL"
		}
		message := appErr.Message
		if message == "" {
			message = "internal error"
		}
		JSONError(w, status, code, message, appErr.Details)
		return
	}

	var verr *pricing.ValidationError
	var nf *pricing.NotFoundError
	switch {
	case errors.As(err, &verr):
		JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", verr.Error(), map[string]string{verr.Field: verr.Reason})
	case errors.Is(err, pricing.ErrValidation):
		JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error(), nil)
	case errors.As(err, &nf):
		JSONError(w, http.StatusNotFound, "NOT_FOUND", nf.Error(), map[string]string{"entity": nf.Entity, "key": nf.Key})
	case errors.Is(err, ErrNotFound), errors.Is(err, pricing.ErrNotFound):
		JSONError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	case errors.Is(err, ErrConflict):
		JSONError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	default:
		JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
