package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrPolicyNotFound       = errors.New("policy not found")
)

// BadRequestError is a validation, eligibility, or dependency failure. The
// message is safe to surface to the caller, and the error is guaranteed to
// occur before any persistence call.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return e.Message
}

// BadRequest constructs a BadRequestError with a formatted message.
func BadRequest(format string, args ...any) *BadRequestError {
	return &BadRequestError{Message: fmt.Sprintf(format, args...)}
}

// IsBadRequest reports whether err is (or wraps) a BadRequestError.
func IsBadRequest(err error) bool {
	var target *BadRequestError
	return errors.As(err, &target)
}

// NotImplementedError indicates a requirement type with no registered
// factory. This is a configuration bug to fix at startup, not a condition
// callers should branch on; a silent empty requirement would be a security
// hole.
type NotImplementedError struct {
	Requirement string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("no policy requirement factory registered for %s", e.Requirement)
}

// IsNotImplemented reports whether err is (or wraps) a NotImplementedError.
func IsNotImplemented(err error) bool {
	var target *NotImplementedError
	return errors.As(err, &target)
}
