// Package apperr defines the typed failure taxonomy shared by services
// and the HTTP response envelope.
package apperr

import "errors"

// Kind classifies an application error
type Kind int

const (
	KindSystem Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthorized
)

// Error is a typed application failure. Key is set for field-attributable
// validation errors and empty otherwise.
type Error struct {
	Kind    Kind
	Key     string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Validation creates a field-attributable validation error
func Validation(key, message string) *Error {
	return &Error{Kind: KindValidation, Key: key, Message: message}
}

// NotFound creates a not-found error
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict creates an optimistic-lock conflict error
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Forbidden creates an authorization failure
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Unauthorized creates an authentication failure
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// System wraps an unexpected failure without leaking internals to clients
func System(message string) *Error {
	return &Error{Kind: KindSystem, Message: message}
}

// KindOf returns the kind of err, defaulting to KindSystem for
// untyped errors
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindSystem
}

// Is reports whether err is an application error of the given kind
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
