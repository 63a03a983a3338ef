package client

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNetwork      = errors.New("network error")
	ErrServer       = errors.New("server error")
	ErrRequest      = errors.New("request error")
	ErrDecode       = errors.New("malformed response")
)

// Human-readable fallbacks used when the server gives no message.
const (
	MsgServerError  = "Server error"
	MsgNetworkError = "Network error. Please check your connection."
	MsgUnexpected   = "Unexpected error occurred"
)

// Error is the single error shape returned by the HTTP client. Message is
// safe to show to the user. Kind is one of the sentinel errors above and
// Cause, when set, is the underlying transport or decoding error; both are
// reachable with errors.Is / errors.As.
type Error struct {
	Status  int
	Message string
	Kind    error
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// StatusCode extracts the HTTP status from err, or 0 when err did not come
// from a server response.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

func kindForStatus(status int) error {
	if status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return ErrServer
}
