package aggregates

import (
	"errors"
	"strings"
)

// ErrorCode classifies an enrollment write failure.
type ErrorCode string

const (
	CodeValidation ErrorCode = "validation"
	CodeNotFound   ErrorCode = "not_found"
	CodeOwnership  ErrorCode = "ownership"
	CodeConflict   ErrorCode = "conflict"
	// CodeTransient marks lock, deadlock and timeout failures. It is kept for
	// metrics; callers see it as an internal failure.
	CodeTransient  ErrorCode = "transient"
	CodeInternal   ErrorCode = "internal"
)

var defaultMessages = map[ErrorCode]string{
	CodeValidation: "Invalid statement",
	CodeNotFound:   "Not found",
	CodeOwnership:  "Not allowed",
	CodeConflict:   "Conflicting update, retry the request",
	CodeInternal:   "internal error",
}

// Error is returned by every aggregate write. Message is written for clients;
// Cause carries the underlying failure and is never shown to them.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// PublicMessage is Message, or a generic text for the code when unset.
func (e *Error) PublicMessage() string {
	if e == nil {
		return ""
	}
	if e.Message != "" && e.Code != CodeInternal && e.Code != CodeTransient {
		return e.Message
	}
	if msg, ok := defaultMessages[e.Code]; ok {
		return msg
	}
	if e.Code == CodeTransient {
		return defaultMessages[CodeInternal]
	}
	return string(e.Code)
}

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap classifies err without exposing its text to clients.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, "", err)
}

func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// CodeOf returns "" when err is not an *Error.
func CodeOf(err error) ErrorCode {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return ""
	}
	return aggErr.Code
}
