package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	// ErrStorage wraps any fault of the backing message store. Never
	// retried inside the chat core; the transport layer must surface it
	// to the sender as "not sent".
	ErrStorage = fmt.Errorf("message store failure")

	ErrWorkerPanic    = fmt.Errorf("worker panic")
	ErrEmptyContent   = fmt.Errorf("message content is empty")
	ErrContentTooLong = fmt.Errorf("message content exceeds the allowed length")
	ErrMissingToken   = fmt.Errorf("authorization token is missing")
	ErrInvalidToken   = fmt.Errorf("authorization token is invalid")
)

// MapToHTTPStatus translates chat core errors into HTTP status codes for
// the REST layer.
func MapToHTTPStatus(err error) int {
	switch {
	case stderrors.Is(err, ErrMissingToken):
		return http.StatusForbidden
	case stderrors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrEmptyContent), stderrors.Is(err, ErrContentTooLong):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrStorage):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
