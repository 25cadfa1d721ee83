// Package apperrors defines the error taxonomy shared by the metrics API
// server and its client. Every failure surfaced by the service carries a
// discriminable Kind so callers can branch on recoverable vs. fatal without
// parsing message strings.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an error for callers.
type Kind string

const (
	// KindValidation covers malformed requests caught before any data access:
	// unknown metric fields, empty required collections, out-of-range windows.
	KindValidation Kind = "validation"
	// KindNotFound means the referenced product or resource does not exist.
	KindNotFound Kind = "not_found"
	// KindForbidden means the caller is not allowed to query the resource.
	KindForbidden Kind = "forbidden"
	// KindRateLimited means the caller exceeded the service rate limit.
	KindRateLimited Kind = "rate_limited"
	// KindTransport covers network failures, timeouts and unexpected
	// non-2xx statuses. Always safe to retry at the caller's discretion.
	KindTransport Kind = "transport"
	// KindInternal is an unexpected server-side failure.
	KindInternal Kind = "internal"
)

// Error is the canonical error value for the metrics service.
type Error struct {
	Kind    Kind     `json:"kind"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"` // offending field names, if any
	err     error
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s [%s]", e.Kind, e.Message, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.err }

// Validation builds a validation error naming the offending fields.
func Validation(msg string, fields ...string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// NotFound builds a not-found error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Forbidden builds a forbidden error.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Transport wraps a network-level failure.
func Transport(msg string, cause error) *Error {
	return &Error{Kind: KindTransport, Message: msg, err: cause}
}

// Internal wraps an unexpected server-side failure.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, err: cause}
}

// KindOf extracts the Kind from any error. Unclassified errors report
// KindInternal so callers never see an empty kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRetryable reports whether the caller may safely retry the operation.
// Only transport and rate-limit failures qualify; validation and
// authorization failures will not heal on retry.
func IsRetryable(err error) bool {
	k := KindOf(err)
	return k == KindTransport || k == KindRateLimited
}

// HTTPStatus maps a Kind to the status code the server responds with.
func HTTPStatus(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// KindFromStatus is the client-side inverse of HTTPStatus.
func KindFromStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindForbidden
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		if status >= 500 {
			return KindTransport
		}
		return KindInternal
	}
}
