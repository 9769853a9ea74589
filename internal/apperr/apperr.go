// Package apperr defines the error taxonomy shared by every store and
// service. Handlers translate these into HTTP responses; nothing below the
// HTTP layer imports net/http.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a stable, machine-readable error category.
type Kind string

const (
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindValidation      Kind = "VALIDATION_FAILED"
	KindNotFound        Kind = "NOT_FOUND"
	KindDuplicateName   Kind = "DUPLICATE_NAME"
	KindDuplicateEmail  Kind = "DUPLICATE_EMAIL"
	KindConflictInUse   Kind = "CONFLICT_IN_USE"
	KindPersistence     Kind = "PERSISTENCE_FAILURE"
)

// Error carries a kind plus whatever detail that kind needs: per-field
// reasons for validation, a blocking count for in-use conflicts, a wrapped
// cause for persistence failures.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Count   int64
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Unauthenticated means no identity could be resolved for the request.
func Unauthenticated() *Error {
	return &Error{Kind: KindUnauthenticated, Message: "not authenticated"}
}

// Validation carries one reason per offending field.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

// NotFound covers both absent records and records owned by another user;
// callers are never told which.
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

// DuplicateName reports a per-user category name collision.
func DuplicateName(name string) *Error {
	return &Error{Kind: KindDuplicateName, Message: fmt.Sprintf("category %q already exists", name)}
}

// DuplicateEmail reports an email collision at registration.
func DuplicateEmail() *Error {
	return &Error{Kind: KindDuplicateEmail, Message: "email already registered"}
}

// InUse blocks a category delete while count tasks still reference it.
func InUse(count int64) *Error {
	return &Error{
		Kind:    KindConflictInUse,
		Message: fmt.Sprintf("category is referenced by %d task(s)", count),
		Count:   count,
	}
}

// Persistence wraps a storage-layer failure. The cause is kept for logs and
// never serialized to clients.
func Persistence(op string, cause error) *Error {
	return &Error{Kind: KindPersistence, Message: op + " failed", cause: cause}
}

// From extracts the *Error from err, wrapping unknown errors as persistence
// failures so handlers always have a kind to map.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindPersistence, Message: "internal error", cause: err}
}

// KindOf reports the kind of err, KindPersistence for foreign errors.
func KindOf(err error) Kind { return From(err).Kind }

// HTTPStatus maps an error to the status code handlers respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicateName, KindDuplicateEmail, KindConflictInUse:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
