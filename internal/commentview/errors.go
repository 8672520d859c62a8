package commentview

import (
	"context"
	"errors"
	"net/http"

	"github.com/villagegov/portal/internal/client"
)

// Kind classifies a failed comment action.
type Kind string

const (
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindForbidden       Kind = "FORBIDDEN"
	KindValidation      Kind = "VALIDATION"
	KindTransport       Kind = "TRANSPORT"
	KindNotFound        Kind = "NOT_FOUND"
)

// Error is the single failure type surfaced to the UI layer. Message is
// always human readable.
type Error struct {
	Kind    Kind
	Message string
	Fields  []client.FieldError
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so errors.Is(err, ErrForbidden) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: "please log in to comment"}
	ErrForbidden       = &Error{Kind: KindForbidden, Message: "you are not allowed to change this comment"}
	ErrValidation      = &Error{Kind: KindValidation, Message: "comment content is required"}
	ErrTransport       = &Error{Kind: KindTransport, Message: "could not reach the server, please try again"}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "this comment no longer exists"}

	// ErrSessionClosed is returned by Session actions after Close.
	ErrSessionClosed = &Error{Kind: KindTransport, Message: "session closed"}
)

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsNotFound reports whether err is a NOT_FOUND failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// translate maps a transport failure onto the error taxonomy.
func translate(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) {
			return newError(KindTransport, "request cancelled", err)
		}
		return newError(KindTransport, ErrTransport.Message, err)
	}

	msg := func(fallback string) string {
		if apiErr.Structured() {
			return apiErr.Error()
		}
		return fallback
	}

	switch {
	case apiErr.StatusCode == http.StatusUnauthorized:
		return newError(KindUnauthenticated, msg(ErrUnauthenticated.Message), err)
	case apiErr.StatusCode == http.StatusForbidden:
		return newError(KindForbidden, msg(ErrForbidden.Message), err)
	case apiErr.StatusCode == http.StatusNotFound:
		return newError(KindNotFound, msg(ErrNotFound.Message), err)
	case rejectsInput(apiErr):
		e := newError(KindValidation, apiErr.Error(), err)
		e.Fields = apiErr.Fields
		return e
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return newError(KindTransport, msg("too many requests, please wait a moment"), err)
	default:
		return newError(KindTransport, ErrTransport.Message, err)
	}
}

// rejectsInput reports whether the server refused the submitted content:
// field errors on any 4xx, or an explained 400/422.
func rejectsInput(apiErr *client.APIError) bool {
	code := apiErr.StatusCode
	if code < 400 || code >= 500 {
		return false
	}
	if len(apiErr.Fields) > 0 {
		return true
	}
	return apiErr.Structured() && (code == http.StatusBadRequest || code == http.StatusUnprocessableEntity)
}
