package workflow

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-readable failure category surfaced to API clients.
type Kind string

const (
	KindInvalidTransition  Kind = "INVALID_TRANSITION"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindValidation         Kind = "VALIDATION_ERROR"
	KindNoEligibleApprover Kind = "NO_ELIGIBLE_APPROVER"
	KindAmbiguousApprover  Kind = "AMBIGUOUS_APPROVER"
	KindNotFound           Kind = "NOT_FOUND"
)

// Error is a typed, recoverable workflow failure. Operations on bad input
// return one of these; they never panic.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Errf builds a typed workflow error.
func Errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the failure category from an error chain. Untyped errors
// report as an empty Kind and should be treated as internal failures.
func KindOf(err error) Kind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return ""
}

// HTTPStatus maps a failure category to its response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidTransition:
		return http.StatusConflict
	case KindNoEligibleApprover, KindAmbiguousApprover:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
