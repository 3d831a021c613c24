package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("access forbidden")

	ErrClientNotFound = errors.New("client not found")
	ErrQuoteNotFound  = errors.New("quote not found")
	ErrOrderNotFound  = errors.New("order not found")
	ErrBillNotFound   = errors.New("bill not found")

	ErrAttachmentNotFound = errors.New("attachment not found")

	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUserExists        = errors.New("user already exists")
	ErrOrderExists       = errors.New("order already exists for quote")
	ErrBillExists        = errors.New("bill already exists for order")

	// ErrTransaction marks a multi-step write that could not be started or
	// committed. Nothing from the transaction is visible when it is returned.
	ErrTransaction = errors.New("transaction failed")
)

// NewValidationError wraps ErrValidation with a caller-facing message.
func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// transitionError reports the rejected edge while still matching ErrInvalidTransition.
func transitionError(entity string, from, to any) error {
	return fmt.Errorf("%w: %s cannot move from %q to %q", ErrInvalidTransition, entity, from, to)
}
