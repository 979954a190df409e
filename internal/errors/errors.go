package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind represents the type of error
type Kind int

const (
	ErrInternal Kind = iota
	ErrNotFound
	ErrValidation
	ErrConflict
	ErrInvalidInput
	ErrIneligible
	ErrUnauthorized
)

func (k Kind) String() string {
	switch k {
	case ErrNotFound:
		return "not_found"
	case ErrValidation:
		return "validation"
	case ErrConflict:
		return "conflict"
	case ErrInvalidInput:
		return "invalid_input"
	case ErrIneligible:
		return "ineligible"
	case ErrUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error is an application-level error with a kind for classification.
// Code is a stable machine-readable identifier; two errors with the same
// non-empty Code match under errors.Is regardless of message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Failed  []string // failed eligibility steps, only for ErrIneligible
	Err     error    // underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error carrying the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Code == "" {
		return false
	}
	return e.Code == t.Code
}

// InvalidInput creates an uncoded error for a request that is missing
// required input
func InvalidInput(msg string) *Error {
	return &Error{Kind: ErrInvalidInput, Message: msg}
}

// Internal hides err behind a generic message
func Internal(err error) *Error {
	return &Error{Kind: ErrInternal, Message: "internal error", Err: err}
}

// Coded creates an error with an explicit stable code
func Coded(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Ineligible creates an eligibility failure naming the failed steps
func Ineligible(failed []string) *Error {
	steps := make([]string, len(failed))
	copy(steps, failed)
	return &Error{
		Kind:    ErrIneligible,
		Code:    CodeIneligible,
		Message: "Verification failed: " + strings.Join(steps, ", "),
		Failed:  steps,
	}
}

// CodeIneligible is the code carried by every Ineligible error
const CodeIneligible = "INELIGIBLE"

// KindOf returns the kind of the first *Error in err's chain, or ErrInternal
func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrInternal
}

// CodeOf returns the code of the first *Error in err's chain, or ""
func CodeOf(err error) string {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
