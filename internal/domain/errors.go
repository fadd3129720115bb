package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the services wraps exactly one of them.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("not authorized")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrDependency        = errors.New("dependency failure")
)

var (
	ErrBookingNotFound      = fmt.Errorf("booking %w", ErrNotFound)
	ErrVerificationNotFound = fmt.Errorf("verification %w", ErrNotFound)
	ErrPackageNotFound      = fmt.Errorf("package %w", ErrNotFound)
	ErrFileNotFound         = fmt.Errorf("file %w", ErrNotFound)

	ErrAlreadyTerminal = fmt.Errorf("%w: booking is already confirmed or rejected", ErrInvalidTransition)
	ErrNotPending      = fmt.Errorf("%w: cannot cancel in current state", ErrInvalidTransition)

	ErrNotOwner           = fmt.Errorf("%w: booking belongs to another partner", ErrForbidden)
	ErrAdminOnly          = fmt.Errorf("%w: administrator role required", ErrForbidden)
	ErrPartnerNotVerified = fmt.Errorf("%w: partner is not verified", ErrForbidden)

	ErrIdentifiersExhausted = fmt.Errorf("%w: could not allocate unique booking identifiers", ErrDependency)
	ErrInvoiceFailed        = fmt.Errorf("%w: invoice generation failed", ErrDependency)
)

// ValidationError reports a malformed or out-of-range input field.
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

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Kind names the failure class of an error for transports.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindInvalidTransition Kind = "invalid_transition"
	KindDependency        Kind = "dependency"
	KindInternal          Kind = "internal"
)

func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrDependency):
		return KindDependency
	default:
		return KindInternal
	}
}
