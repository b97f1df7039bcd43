package utils

import (
	"errors"
	"fmt"
)

// Common application errors used across services.
var (
	ErrInvalidCredentials   = errors.New("INVALID_CREDENTIALS")
	ErrAccountInactive      = errors.New("ACCOUNT_INACTIVE")
	ErrAdminInactive        = errors.New("ADMIN_INACTIVE")
	ErrUserNotFound         = errors.New("USER_NOT_FOUND")
	ErrUsernameTaken        = errors.New("USERNAME_TAKEN")
	ErrApplicationNotFound  = errors.New("APPLICATION_NOT_FOUND")
	ErrApplicationExists    = errors.New("APPLICATION_EXISTS")
	ErrApplicationPending   = errors.New("APPLICATION_PENDING")
	ErrApplicationNeedsInfo = errors.New("APPLICATION_NEEDS_INFO")
	ErrApplicationRejected  = errors.New("APPLICATION_REJECTED")
	ErrApplicationMissing   = errors.New("APPLICATION_MISSING")
	ErrAlreadyGranted       = errors.New("ALREADY_GRANTED")
	ErrAlreadyPending       = errors.New("ALREADY_PENDING")
	ErrNotPending           = errors.New("NOT_PENDING")
	ErrRequestNotFound      = errors.New("REQUEST_NOT_FOUND")
	ErrInvalidPermission    = errors.New("INVALID_PERMISSION")
	ErrInvalidDecision      = errors.New("INVALID_DECISION")
	ErrInvalidRole          = errors.New("INVALID_ROLE")
	ErrSessionExpired       = errors.New("SESSION_EXPIRED")
)

// ValidationError reports a malformed or missing input field. Callers can
// recover by re-submitting with the field corrected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError constructs a ValidationError for one field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
