// Package apperr defines the classified failures the API is allowed to
// surface to clients. Every failure carries a fixed HTTP status derived
// from its kind, a user-facing message, and an optional stable machine
// code. Handlers and middleware raise these errors; translation into the
// wire envelope happens exactly once, in pkg/httputil.
package apperr

import "net/http"

// Kind discriminates the closed set of failure classes.
type Kind int

const (
	KindBadRequest Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindInternal
)

// kindStatus fixes the HTTP status for each kind. Callers can vary the
// message and code of an Error but never its status.
var kindStatus = map[Kind]int{
	KindBadRequest:   http.StatusBadRequest,
	KindUnauthorized: http.StatusUnauthorized,
	KindForbidden:    http.StatusForbidden,
	KindNotFound:     http.StatusNotFound,
	KindInternal:     http.StatusInternalServerError,
}

// kindMessage holds the default message used when a constructor is given
// an empty one.
var kindMessage = map[Kind]string{
	KindBadRequest:   "Bad Request",
	KindUnauthorized: "Unauthorized",
	KindForbidden:    "Forbidden",
	KindNotFound:     "Not Found",
	KindInternal:     "Internal Server Error",
}

// Error is a classified failure. It is constructed at the point of
// detection and propagated up the call stack unmodified.
type Error struct {
	Kind    Kind
	Message string
	Code    Code // empty means no machine code
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Status returns the HTTP status fixed by the error's kind.
func (e *Error) Status() int {
	if s, ok := kindStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// WithCode returns a copy of the error carrying the given machine code.
func (e *Error) WithCode(code Code) *Error {
	clone := *e
	clone.Code = code
	return &clone
}

// New creates an Error of the given kind. An empty message selects the
// kind's default.
func New(kind Kind, message string) *Error {
	if message == "" {
		message = kindMessage[kind]
	}
	return &Error{Kind: kind, Message: message}
}

// NewBadRequest creates a 400 error.
func NewBadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

// NewUnauthorized creates a 401 error.
func NewUnauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

// NewForbidden creates a 403 error.
func NewForbidden(message string) *Error {
	return New(KindForbidden, message)
}

// NewNotFound creates a 404 error.
func NewNotFound(message string) *Error {
	return New(KindNotFound, message)
}

// NewInternal creates a 500 error.
func NewInternal(message string) *Error {
	return New(KindInternal, message)
}
