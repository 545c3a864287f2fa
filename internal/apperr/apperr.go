// Package apperr defines the engine's error taxonomy. Every kind except
// Unavailable is contained where it occurs: a bad record is skipped, a slow
// branch degrades to its zero value. Only Unavailable reaches callers.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an engine error.
type Kind string

const (
	// MissingOwner: the caller resolves to zero properties.
	MissingOwner Kind = "MISSING_OWNER"
	// MissingRelation: a record references an entity that cannot be found.
	MissingRelation Kind = "MISSING_RELATION"
	// Computation: a numeric field cannot be parsed.
	Computation Kind = "COMPUTATION"
	// Timeout: a bounded sub-query exceeded its deadline.
	Timeout Kind = "TIMEOUT"
	// Unavailable: the entity repository cannot be reached at all.
	Unavailable Kind = "REPOSITORY_UNAVAILABLE"
)

// Error carries a Kind, the operation that failed and the cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain. Bare deadline
// errors are reported as Timeout.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout, true
	}
	return "", false
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsUnavailable reports whether err means the repository cannot be reached.
func IsUnavailable(err error) bool { return Is(err, Unavailable) }

// IsTimeout reports whether err is a deadline on a bounded query.
func IsTimeout(err error) bool { return Is(err, Timeout) }
