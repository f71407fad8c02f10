package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Bonsai error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrDuplicate      ErrorCode = "DUPLICATE"       // 409
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// BonsaiError represents a structured error with code, status, and details.
type BonsaiError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *BonsaiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *BonsaiError {
	return &BonsaiError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when an optimization cannot be found.
func NewNotFound(identifier string) *BonsaiError {
	return &BonsaiError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("optimization not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewDuplicate creates a 409 error for a save whose content signature
// already exists in the history store. Callers that auto-save treat this
// code as success-equivalent rather than surfacing it.
func NewDuplicate(signature string) *BonsaiError {
	return &BonsaiError{
		Code:    ErrDuplicate,
		Status:  409,
		Message: fmt.Sprintf("optimization already saved for signature %q", signature),
		Details: map[string]any{"signature": signature},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *BonsaiError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &BonsaiError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a BonsaiError with the given code.
func Is(err error, code ErrorCode) bool {
	var bErr *BonsaiError
	if stderrors.As(err, &bErr) {
		return bErr.Code == code
	}
	return false
}
