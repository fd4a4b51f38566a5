// Package errkind classifies domain failures so transport edges can decide
// between an in-band error event, a close code, or a logged-and-swallowed
// infrastructure fault.
package errkind

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Infrastructure Kind = iota
	Validation
	Authorization
	NotFound
	RateLimit
	Capacity
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Authorization:
		return "authorization"
	case NotFound:
		return "not_found"
	case RateLimit:
		return "rate_limit"
	case Capacity:
		return "capacity"
	case Conflict:
		return "conflict"
	default:
		return "infrastructure"
	}
}

// Error is a classified failure. Sentinel values are compared by identity
// with errors.Is; wrap them with fmt.Errorf("...: %w", ErrX) to add context.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Of reports the kind of err. Unclassified errors are infrastructure faults.
func Of(err error) Kind {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return Infrastructure
}

// Code returns the wire code of err, or fallback when err is unclassified.
func Code(err error, fallback string) string {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Code
	}
	return fallback
}

// Message returns the human-readable message of a classified error.
func Message(err error) string {
	var ke *Error
	if errors.As(err, &ke) && ke.Message != "" {
		return ke.Message
	}
	return err.Error()
}
