package core

import (
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned by KVStore implementations when a key does not
// exist.
var ErrKeyNotFound = errors.New("key not found")

// ValidationError reports a user-input rule violation: a normal, expected,
// recoverable outcome of bad input (too short, not yes/no). It never causes a
// state transition; callers recover by re-prompting in the same state. The
// engine re-raises it unchanged instead of wrapping it into a FlowError.
type ValidationError struct {
	// Field names the offending input field.
	Field string
	// Value is the offending value.
	Value string
	// Reason is a human-readable description of the violated rule.
	Reason string
	// Details carries additional machine-readable context (limits, lengths).
	Details map[string]any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Reason)
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, value, reason string, details map[string]any) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason, Details: details}
}

// FlowError reports anything else that prevents a transition from completing:
// a missing transition, a failed guard, a handler failure or an unexpected
// result shape. It carries the pre-transition state for diagnostics and may
// carry pre-built fallback messages so the caller can show something graceful
// instead of a generic apology. The session's state is left unchanged.
type FlowError struct {
	// Step is the state the session was in when the error occurred.
	Step FlowStep
	// Reason describes the failure.
	Reason string
	// ValidEvents lists the events the state accepts, when the failure was an
	// unknown (state, event) pair.
	ValidEvents []FlowEvent
	// Messages optionally carries fallback messages to show the user.
	Messages []Message

	err error
}

// Error implements the error interface.
func (e *FlowError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("flow error in state %q: %s: %v", e.Step, e.Reason, e.err)
	}
	return fmt.Sprintf("flow error in state %q: %s", e.Step, e.Reason)
}

// Unwrap exposes the wrapped cause, if any.
func (e *FlowError) Unwrap() error { return e.err }

// NewFlowError constructs a FlowError for the given state.
func NewFlowError(step FlowStep, reason string) *FlowError {
	return &FlowError{Step: step, Reason: reason}
}

// WrapFlowError constructs a FlowError wrapping an underlying handler failure.
func WrapFlowError(step FlowStep, reason string, err error) *FlowError {
	return &FlowError{Step: step, Reason: reason, err: err}
}

// AsValidationError unwraps err into a *ValidationError, if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsFlowError unwraps err into a *FlowError, if it is one.
func AsFlowError(err error) (*FlowError, bool) {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
