// Package apperr defines the error taxonomy shared by services and handlers.
//
// Services return *Error values carrying a Kind; the API layer maps the Kind
// to an HTTP status and decides how much of the message a client may see.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure by what the caller has to do about it.
type Kind int

const (
	// Internal is an unexpected storage, hashing or signing failure.
	Internal Kind = iota
	// InvalidInput means a request field is missing or malformed.
	InvalidInput
	// Unauthorized means the credentials or bearer token were rejected.
	Unauthorized
	// Forbidden means the caller is authenticated but not allowed.
	Forbidden
	// NotFound means the addressed record does not exist.
	NotFound
	// Conflict means the request collides with existing state.
	Conflict
)

// InternalMessage is the only text clients ever see for Internal errors.
const InternalMessage = "internal_error"

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// HTTPStatus maps a Kind to its response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case InvalidInput:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap classifies err under kind, keeping it for errors.Is/As.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf reports the Kind of err. Unclassified errors are Internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage returns the text that may be shown to a client.
func PublicMessage(err error) string {
	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Kind == Internal {
		return InternalMessage
	}
	return appErr.Message
}
