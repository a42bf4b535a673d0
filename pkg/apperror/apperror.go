// Package apperror holds the error kinds services return to handlers.
package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is a client-facing failure. Fields carries per-field validation detail.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches an *Error of the same kind whose message equals the target's.
// A target with an empty message matches every message of its kind, so
// errors.Is(err, &Error{Kind: KindAuthorization}) catches any authorization error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

var (
	ErrAuthenticationRequired = &Error{Kind: KindAuthentication, Message: "authentication required"}
	ErrForbidden              = &Error{Kind: KindAuthorization, Message: "forbidden"}
	ErrInvalidCode            = &Error{Kind: KindAuthentication, Message: "invalid confirmation code"}
	ErrInvalidToken           = &Error{Kind: KindAuthentication, Message: "invalid or expired token"}
)

func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// FieldInvalid is a validation error about a single field.
func FieldInvalid(field, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "validation failed",
		Fields:  map[string]string{field: message},
	}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of err, KindInternal for anything that is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
