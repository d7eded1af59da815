package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Codes carried by Error. Handlers and tests switch on these rather than on
// message text.
const (
	CodeValidation = "validation_error"
	CodeAuth       = "auth_error"
	CodeForbidden  = "forbidden"
	CodeResolution = "resolution_error"
	CodeNotFound   = "not_found"
	CodeOwnership  = "ownership_error"
	CodeConflict   = "conflict"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(msg string) *Error {
	return New(http.StatusBadRequest, CodeValidation, errors.New(msg))
}

func Auth(msg string) *Error {
	return New(http.StatusUnauthorized, CodeAuth, errors.New(msg))
}

func Forbidden(msg string) *Error {
	return New(http.StatusForbidden, CodeForbidden, errors.New(msg))
}

func Resolution(msg string) *Error {
	return New(http.StatusBadRequest, CodeResolution, errors.New(msg))
}

func NotFound(msg string) *Error {
	return New(http.StatusNotFound, CodeNotFound, errors.New(msg))
}

// Ownership reports a referenced record that belongs to a different subject.
func Ownership(msg string) *Error {
	return New(http.StatusForbidden, CodeOwnership, errors.New(msg))
}

func Conflict(msg string) *Error {
	return New(http.StatusConflict, CodeConflict, errors.New(msg))
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

// IsCode reports whether err carries code.
func IsCode(err error, code string) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// StatusOf returns the HTTP status carried by err, or 500 when err is not an *Error.
func StatusOf(err error) int {
	if e, ok := As(err); ok && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}
