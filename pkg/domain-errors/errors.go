// Package domainerrors provides coded domain errors shared by all modules.
//
// Services create these at the boundary between domain logic and callers;
// the HTTP layer maps codes to status codes in pkg/platform/httputil. Stores
// never return coded errors directly - they return sentinel errors
// (pkg/platform/sentinel) which services translate.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for programmatic handling.
type Code string

const (
	// CodeValidation marks malformed or out-of-policy input, e.g. a review
	// reason under the minimum length or a policy pack missing a field.
	CodeValidation Code = "validation"

	// CodeBadRequest marks requests that cannot be parsed at all.
	CodeBadRequest Code = "bad_request"

	// CodeInvalidInput marks inputs rejected at a trust boundary (IDs,
	// enum values).
	CodeInvalidInput Code = "invalid_input"

	// CodeUnauthorized marks missing or invalid actor credentials.
	CodeUnauthorized Code = "unauthorized"

	// CodeForbidden marks an authenticated actor lacking the role a
	// transition requires.
	CodeForbidden Code = "forbidden"

	// CodeNotFound marks references to tenants or blueprint rules that do
	// not exist where a definition is expected.
	CodeNotFound Code = "not_found"

	// CodeConflict marks state conflicts, e.g. requesting a blueprint that
	// is already active.
	CodeConflict Code = "conflict"

	// CodePreconditionFailed marks transitions attempted out of order,
	// e.g. approving a blueprint that has no unconsumed review.
	CodePreconditionFailed Code = "precondition_failed"

	// CodePolicyBlocked marks approvals rejected by a live policy
	// evaluation. The message names each failing compliance check.
	CodePolicyBlocked Code = "policy_blocked"

	// CodeInvariantViolation marks aggregate invariant breaches caught by
	// domain constructors and Can* methods.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeInternal marks infrastructure failures. Details are logged, not
	// surfaced to callers.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. It wraps an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error with a human-readable message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
// If err is nil, Wrap returns nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err or any error in its chain carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		de = nil
	}
	return false
}

// CodeOf returns the code of the outermost coded error in the chain,
// or CodeInternal when err carries no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the message of the outermost coded error, or a generic
// message for uncoded errors so infrastructure details never leak.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// Is delegates to errors.Is for use alongside sentinel comparisons.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
