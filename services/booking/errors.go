package booking

import (
	"errors"
	"fmt"
)

// ErrorKind classifies what went wrong so callers can decide how to recover.
type ErrorKind string

const (
	KindValidation           ErrorKind = "validation"
	KindAvailabilityConflict ErrorKind = "availability_conflict"
	KindNetwork              ErrorKind = "network"
	KindServer               ErrorKind = "server"
	KindPaymentDeclined      ErrorKind = "payment_declined"
	KindPaymentCancelled     ErrorKind = "payment_cancelled"
)

var (
	ErrNoServicesSelected = errors.New("select at least one service to continue")
	ErrDateTimeRequired   = errors.New("select a date and a time slot to continue")
	ErrInvalidTransition  = errors.New("action not allowed at this step")
	ErrFlowNotFound       = errors.New("booking flow not found or expired")

	ErrPaymentReferenceRequired = errors.New("payment reference is required")
	ErrVerificationInProgress   = errors.New("payment is being verified")
)

// FlowError is the single error type the flow reports to its caller.
type FlowError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// Retryable reports whether re-triggering the same action may succeed.
func (e *FlowError) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindServer, KindAvailabilityConflict, KindPaymentDeclined, KindPaymentCancelled:
		return true
	}
	return false
}

func NewValidationError(err error) *FlowError {
	return &FlowError{Kind: KindValidation, Message: err.Error(), Err: err}
}

func NewConflictError(msg string) *FlowError {
	if msg == "" {
		msg = "the selected time is no longer available"
	}
	return &FlowError{Kind: KindAvailabilityConflict, Message: msg}
}

func NewNetworkError(err error) *FlowError {
	return &FlowError{Kind: KindNetwork, Message: "could not reach the booking service, please try again", Err: err}
}

func NewServerError(msg string, err error) *FlowError {
	if msg == "" {
		msg = "the booking service failed, please try again"
	}
	return &FlowError{Kind: KindServer, Message: msg, Err: err}
}

// AsFlowError maps any error onto the flow taxonomy. Errors that are not
// already a FlowError count as server failures.
func AsFlowError(err error) *FlowError {
	if err == nil {
		return nil
	}
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, ErrNoServicesSelected) || errors.Is(err, ErrDateTimeRequired) ||
		errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrVerificationInProgress) {
		return NewValidationError(err)
	}
	return NewServerError("", err)
}

// KindOf returns the kind of err, or "" when err is nil.
func KindOf(err error) ErrorKind {
	if fe := AsFlowError(err); fe != nil {
		return fe.Kind
	}
	return ""
}
