// Package apperr is the service's error taxonomy. Codes reuse the gRPC
// status codes so the same error maps cleanly onto HTTP and gRPC.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

type Error struct {
	Code      codes.Code
	MessageID string            // i18n message id shown to the user
	Data      map[string]any    // i18n template data
	Fields    map[string]string // field name -> i18n message id
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.MessageID, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.MessageID)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on code and message id so sentinel-style comparisons work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.MessageID == t.MessageID
}

func (e *Error) WithData(data map[string]any) *Error {
	cp := *e
	cp.Data = data
	return &cp
}

func New(code codes.Code, messageID string) *Error {
	return &Error{Code: code, MessageID: messageID}
}

func NotFound(messageID string) *Error     { return New(codes.NotFound, messageID) }
func Conflict(messageID string) *Error     { return New(codes.AlreadyExists, messageID) }
func Precondition(messageID string) *Error { return New(codes.FailedPrecondition, messageID) }
func Aborted(messageID string) *Error      { return New(codes.Aborted, messageID) }

func Forbidden() *Error       { return New(codes.PermissionDenied, "error.forbidden") }
func Unauthenticated() *Error { return New(codes.Unauthenticated, "error.unauthenticated") }

func Invalid(messageID string) *Error {
	return New(codes.InvalidArgument, messageID)
}

// Internal wraps an infrastructure failure. The cause is kept for logs only.
func Internal(err error) *Error {
	return &Error{Code: codes.Internal, MessageID: "error.internal", Err: err}
}

// CodeOf returns the code of err, codes.OK for nil and codes.Internal for
// errors outside the taxonomy.
func CodeOf(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return codes.Internal
}

// From converts any error into an *Error.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

func HTTPStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.FailedPrecondition, codes.Aborted:
		return http.StatusConflict
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
