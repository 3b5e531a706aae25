// Package apperr defines the application error taxonomy and how each kind
// maps onto an HTTP response.
//
// Services return *Error values built with the constructors below; handlers
// match them with errors.Is against the sentinels or read the Kind directly.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers and for the HTTP layer.
type Kind string

const (
	KindUnauthenticated      Kind = "UNAUTHENTICATED"
	KindValidation           Kind = "VALIDATION"
	KindNotFound             Kind = "NOT_FOUND"
	KindConflict             Kind = "CONFLICT"
	KindConfirmationRequired Kind = "CONFIRMATION_REQUIRED"
	KindStoreUnavailable     Kind = "STORE_UNAVAILABLE"
	KindExternalAPI          Kind = "EXTERNAL_API"
	KindRateLimited          Kind = "RATE_LIMITED"
	KindInternal             Kind = "INTERNAL"
)

// HTTPStatus returns the status code used when rendering this kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindConfirmationRequired:
		return http.StatusPreconditionRequired
	case KindStoreUnavailable:
		return http.StatusServiceUnavailable
	case KindExternalAPI:
		return http.StatusBadGateway
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error.
type Error struct {
	Kind    Kind              `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is.
var (
	ErrUnauthenticated      = &Error{Kind: KindUnauthenticated, Message: "not authenticated"}
	ErrValidation           = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrNotFound             = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict             = &Error{Kind: KindConflict, Message: "conflict"}
	ErrConfirmationRequired = &Error{Kind: KindConfirmationRequired, Message: "confirmation required"}
	ErrStoreUnavailable     = &Error{Kind: KindStoreUnavailable, Message: "store unavailable"}
	ErrExternalAPI          = &Error{Kind: KindExternalAPI, Message: "external api error"}
	ErrRateLimited          = &Error{Kind: KindRateLimited, Message: "rate limit exceeded"}
)

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// ValidationFields reports per-field validation failures keyed by json name.
func ValidationFields(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func ConfirmationRequired(msg string) *Error {
	return &Error{Kind: KindConfirmationRequired, Message: msg}
}

func RateLimited(msg string) *Error {
	return &Error{Kind: KindRateLimited, Message: msg}
}

// StoreUnavailable wraps a backend failure.
func StoreUnavailable(msg string, cause error) *Error {
	return &Error{Kind: KindStoreUnavailable, Message: msg, cause: cause}
}

// ExternalAPI wraps a failure of a third-party API.
func ExternalAPI(msg string, cause error) *Error {
	return &Error{Kind: KindExternalAPI, Message: msg, cause: cause}
}

func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, cause: cause}
}

// KindOf returns the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
