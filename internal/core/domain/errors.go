package domain

import (
	"errors"
	"fmt"
)

// DomainError is a business error with a stable code.
//
// Reason carries a finer classification for logs and metric labels. It is
// never part of Error() or of API responses.
type DomainError struct {
	Code    string // e.g. "AT-TOKN-4010"
	Message string // human-readable message
	Details string // optional additional details
	Reason  string // internal classification, never exposed
	Cause   error  // underlying error, if any
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Cause = cause
	return &c
}

// WithReason returns a copy of the error tagged with an internal reason.
func (e *DomainError) WithReason(reason string) *DomainError {
	c := *e
	c.Reason = reason
	return &c
}

// Wrap is an alias of WithCause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError reports whether err is a DomainError with the given code.
// An empty code matches any DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the code from a DomainError, or "".
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ReasonOf extracts the internal reason from a DomainError, or "".
func ReasonOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Reason
	}
	return ""
}

// Reasons attached to ErrTokenInvalid.
const (
	ReasonMalformed     = "malformed"
	ReasonNotFound      = "not_found"
	ReasonExpired       = "expired"
	ReasonOwnerMismatch = "owner_mismatch"
	ReasonInactiveOwner = "inactive_owner"
)

// ============================================================================
// Token Errors (TOKN)
// ============================================================================

var (
	// ErrTokenInvalid is the single error a presenter of a bad token sees,
	// whatever the reason (malformed, unknown, expired, mismatched).
	ErrTokenInvalid = NewDomainError("AT-TOKN-4010", "invalid token")

	// ErrTokenNotFound is returned by revoke when nothing was deleted.
	ErrTokenNotFound = NewDomainError("AT-TOKN-4040", "token not found")

	// ErrTokenConflict indicates a digest already present in the store.
	ErrTokenConflict = NewDomainError("AT-TOKN-4090", "token digest conflict")
)

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrCredentialsMissing indicates no token credentials were presented.
	ErrCredentialsMissing = NewDomainError("AT-AUTH-4010", "authentication credentials were not provided")

	// ErrInvalidCredentials indicates a wrong username or password.
	ErrInvalidCredentials = NewDomainError("AT-AUTH-4011", "invalid username or password")
)

// ============================================================================
// Account Errors (ACCT)
// ============================================================================

var (
	// ErrAccountValidation indicates account fields failed validation.
	ErrAccountValidation = NewDomainError("AT-ACCT-4001", "account validation failed")

	// ErrRegistrationDisabled indicates self registration is turned off.
	ErrRegistrationDisabled = NewDomainError("AT-ACCT-4030", "registration is disabled")

	// ErrAccountNotFound indicates the account does not exist.
	ErrAccountNotFound = NewDomainError("AT-ACCT-4040", "account not found")

	// ErrAccountConflict indicates the username or id is already taken.
	ErrAccountConflict = NewDomainError("AT-ACCT-4090", "account already exists")

	// ErrEmailAlreadyConfirmed indicates there is nothing to confirm.
	ErrEmailAlreadyConfirmed = NewDomainError("AT-ACCT-4091", "email already confirmed")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("AT-SYS-5000", "internal server error")

	// ErrStorageError indicates the store could not be reached or failed.
	ErrStorageError = NewDomainError("AT-SYS-5001", "storage error")

	// ErrMailDelivery indicates the confirmation mail could not be sent.
	ErrMailDelivery = NewDomainError("AT-SYS-5020", "mail delivery failed")

	// ErrServiceUnavailable indicates the service is temporarily unavailable.
	ErrServiceUnavailable = NewDomainError("AT-SYS-5030", "service unavailable")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("AT-SYS-4000", "bad request")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("AT-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("AT-ARG-1002", "missing required argument")
)
