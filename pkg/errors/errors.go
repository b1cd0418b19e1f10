// Package errors defines the typed errors surfaced by the authentication
// engine and mapped to process exit codes by the CLI layer.
package errors

import (
	"errors"
	"fmt"
)

// Error types
const (
	// ErrNetwork is returned when the identity provider is unreachable or the
	// request timed out before the provider processed it
	ErrNetwork = "network"

	// ErrProviderRejected is returned when the provider answered with an
	// OAuth2 error body (4xx) that requires new user action
	ErrProviderRejected = "provider_rejected"

	// ErrPortInUse is returned when the local callback port is already bound
	ErrPortInUse = "port_in_use"

	// ErrTimeout is returned when the user did not complete the browser
	// authentication before the login deadline
	ErrTimeout = "timeout"

	// ErrInvalidGrant is returned when a refresh token is expired or revoked
	// and a fresh interactive login is required
	ErrInvalidGrant = "invalid_grant"

	// ErrNotAuthenticated is returned when no usable session exists
	ErrNotAuthenticated = "not_authenticated"

	// ErrLoginInProgress is returned when a second login is attempted while
	// one is already awaiting its callback
	ErrLoginInProgress = "login_in_progress"

	// ErrMalformed is returned when the provider response has an unexpected shape
	ErrMalformed = "malformed"

	// ErrInternal is returned when there is an internal error
	ErrInternal = "internal"
)

// Error represents an error in the application
type Error struct {
	// Type is the error type
	Type string

	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new error
func NewError(errorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *Error {
	return NewError(ErrNetwork, message, cause)
}

// NewProviderRejectedError creates a new provider rejected error
func NewProviderRejectedError(message string, cause error) *Error {
	return NewError(ErrProviderRejected, message, cause)
}

// NewPortInUseError creates a new port in use error
func NewPortInUseError(message string, cause error) *Error {
	return NewError(ErrPortInUse, message, cause)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *Error {
	return NewError(ErrTimeout, message, cause)
}

// NewInvalidGrantError creates a new invalid grant error
func NewInvalidGrantError(message string, cause error) *Error {
	return NewError(ErrInvalidGrant, message, cause)
}

// NewNotAuthenticatedError creates a new not authenticated error
func NewNotAuthenticatedError(message string, cause error) *Error {
	return NewError(ErrNotAuthenticated, message, cause)
}

// NewLoginInProgressError creates a new login in progress error
func NewLoginInProgressError(message string, cause error) *Error {
	return NewError(ErrLoginInProgress, message, cause)
}

// NewMalformedError creates a new malformed response error
func NewMalformedError(message string, cause error) *Error {
	return NewError(ErrMalformed, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *Error {
	return NewError(ErrInternal, message, cause)
}

// typeOf extracts the error type, unwrapping as needed.
func typeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// IsNetwork checks if the error is a network error
func IsNetwork(err error) bool {
	return typeOf(err) == ErrNetwork
}

// IsProviderRejected checks if the error is a provider rejected error
func IsProviderRejected(err error) bool {
	return typeOf(err) == ErrProviderRejected
}

// IsPortInUse checks if the error is a port in use error
func IsPortInUse(err error) bool {
	return typeOf(err) == ErrPortInUse
}

// IsTimeout checks if the error is a timeout error
func IsTimeout(err error) bool {
	return typeOf(err) == ErrTimeout
}

// IsInvalidGrant checks if the error is an invalid grant error
func IsInvalidGrant(err error) bool {
	return typeOf(err) == ErrInvalidGrant
}

// IsNotAuthenticated checks if the error is a not authenticated error
func IsNotAuthenticated(err error) bool {
	return typeOf(err) == ErrNotAuthenticated
}

// IsLoginInProgress checks if the error is a login in progress error
func IsLoginInProgress(err error) bool {
	return typeOf(err) == ErrLoginInProgress
}

// IsMalformed checks if the error is a malformed response error
func IsMalformed(err error) bool {
	return typeOf(err) == ErrMalformed
}
