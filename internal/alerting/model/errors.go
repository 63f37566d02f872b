package model

import (
	"errors"
	"fmt"
)

// ErrNotFound signals a missing plot or alert. Callers abort the specific
// operation; it is never fatal to the process.
var ErrNotFound = errors.New("not found")

// ValidationError marks a malformed reading, rejected before evaluation and
// surfaced to the caller as a client error.
type ValidationError struct {
	Reason string
}

func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// DeliveryChannelError records a single channel's send failure. It is
// isolated per channel and never fails the alert-creation pipeline.
type DeliveryChannelError struct {
	Channel string
	Err     error
}

func (e *DeliveryChannelError) Error() string {
	return fmt.Sprintf("delivery via %s: %v", e.Channel, e.Err)
}

func (e *DeliveryChannelError) Unwrap() error { return e.Err }
