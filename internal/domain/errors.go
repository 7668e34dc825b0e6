package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the root of every missing-record error.
	ErrNotFound = errors.New("not found")
	// ErrQuizNotFound indicates the quiz could not be loaded.
	ErrQuizNotFound = fmt.Errorf("quiz %w", ErrNotFound)
	// ErrForbidden is returned when the principal lacks ownership or role.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidReference indicates a submitted question or option id is not part of the quiz.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrInternal wraps storage and infrastructure failures.
	ErrInternal = errors.New("internal error")
)

// ValidationError names the offending input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InvalidReferenceError carries the ids that failed to resolve.
// OptionID is empty when the question itself is unknown.
type InvalidReferenceError struct {
	QuestionID string
	OptionID   string
}

func (e *InvalidReferenceError) Error() string {
	if e.OptionID == "" {
		return fmt.Sprintf("question %s not found in quiz", e.QuestionID)
	}
	return fmt.Sprintf("option %s not found in question %s", e.OptionID, e.QuestionID)
}

func (e *InvalidReferenceError) Unwrap() error { return ErrInvalidReference }

// InternalError wraps a failure from a storage driver.
type InternalError struct {
	Op  string
	Err error
}

// NewInternalError wraps err unless it is nil or already classified.
func NewInternalError(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindInternal {
		return err
	}
	return &InternalError{Op: op, Err: err}
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

func (e *InternalError) Is(target error) bool { return target == ErrInternal }

// Kind is the transport-neutral category of an error.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindValidation
	KindInvalidReference
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation-failed"
	case KindInvalidReference:
		return "invalid-reference"
	default:
		return "internal"
	}
}

// KindOf classifies err. Unknown errors are internal.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrInvalidReference):
		return KindInvalidReference
	default:
		return KindInternal
	}
}
