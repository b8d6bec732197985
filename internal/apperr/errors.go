package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies failures so callers can pick a behaviour without parsing messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindStorageUnavailable
	KindMalformedSnapshot
	KindInvalidImportFormat
	KindLLMRequestFailed
	KindDivisionByZero
)

func (k Kind) String() string {
	switch k {
	case KindStorageUnavailable:
		return "storage unavailable"
	case KindMalformedSnapshot:
		return "malformed snapshot"
	case KindInvalidImportFormat:
		return "invalid import format"
	case KindLLMRequestFailed:
		return "llm request failed"
	case KindDivisionByZero:
		return "division by zero"
	default:
		return "unknown error"
	}
}

// Sentinels for errors.Is checks against a kind.
var (
	ErrStorageUnavailable  = &Error{Kind: KindStorageUnavailable}
	ErrMalformedSnapshot   = &Error{Kind: KindMalformedSnapshot}
	ErrInvalidImportFormat = &Error{Kind: KindInvalidImportFormat}
	ErrLLMRequestFailed    = &Error{Kind: KindLLMRequestFailed}
	ErrDivisionByZero      = &Error{Kind: KindDivisionByZero}
)

type Error struct {
	Kind   Kind
	Op     string
	Reason string
	Err    error
}

func New(kind Kind, op, reason string) *Error {
	return &Error{Kind: kind, Op: op, Reason: reason}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so wrapped errors compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Reason returns the human readable reason carried by err, or its message.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Reason != "" {
		return e.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
