// Package apperr defines the closed error taxonomy for remote workout
// operations. Every failure leaving the service layer is one of these four
// kinds; lower-level errors (store failures, timeouts, panics recovered by
// middleware) are translated before crossing that boundary.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the failure category of an operation error.
type Kind int

const (
	KindValidation Kind = iota
	KindNetwork
	KindPermission
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error carries a failure kind, a ready-to-display message, and, for
// validation failures, a dotted path to the offending input field
// (e.g. "exercises.0.sets").
type Error struct {
	Kind    Kind
	Message string
	Field   string

	// canceled marks a caller-initiated abort, as opposed to a deadline
	// expiry. Both surface as KindNetwork but must stay distinguishable.
	canceled bool
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Retryable reports whether retrying this error can meaningfully succeed
// without caller intervention. Only network failures qualify; validation,
// permission and not-found failures are terminal by policy.
func (e *Error) Retryable() bool {
	return e.Kind == KindNetwork && !e.canceled
}

// IsCanceled reports whether this error came from a caller-initiated abort
// rather than a deadline expiry.
func (e *Error) IsCanceled() bool {
	return e.canceled
}

// Validation builds a validation error for the given input field path.
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Field: field}
}

// Network builds a retryable network/infrastructure error.
func Network(message string) *Error {
	return &Error{Kind: KindNetwork, Message: message}
}

// Permission builds a permission-denied error.
func Permission(message string) *Error {
	return &Error{Kind: KindPermission, Message: message}
}

// NotFound builds a missing-entity error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Canceled builds the error surfaced when the caller aborts an in-flight
// operation. It shares KindNetwork with timeouts but is never retryable.
func Canceled() *Error {
	return &Error{Kind: KindNetwork, Message: "Operation canceled.", canceled: true}
}

// Timeout builds the error surfaced when an operation's deadline elapses.
func Timeout() *Error {
	return &Error{Kind: KindNetwork, Message: "Operation timed out. Please check your connection and try again."}
}

// From translates an arbitrary error into the taxonomy. Taxonomy errors pass
// through unchanged; context expiry/cancellation map to their dedicated
// constructors; everything else becomes a generic network error.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout()
	}
	if errors.Is(err, context.Canceled) {
		return Canceled()
	}
	return Network(err.Error())
}
