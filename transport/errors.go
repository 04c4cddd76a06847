package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ConnectivityMessage is the notification shown for transport failures.
const ConnectivityMessage = "Network connection error, please check the server status"

// ErrEmptyResponse is wrapped by a TransportError when the server answered
// without a body.
var ErrEmptyResponse = errors.New("empty response")

// ErrResponseTooLarge is wrapped by a TransportError when the body exceeds
// the configured response limit.
var ErrResponseTooLarge = errors.New("response body exceeds limit")

// ApplicationError is returned when the backend rejected a request: an
// envelope with a code other than 200, or a non-2xx status.
type ApplicationError struct {
	Code       int
	Message    string
	HTTPStatus int
}

func (e *ApplicationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// TransportError is returned when the call itself failed and no usable
// response was received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Timeout reports whether the failure was a deadline.
func (e *TransportError) Timeout() bool {
	if e == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// IsUnauthorized reports whether err is an application error signalling an
// expired or invalid credential.
func IsUnauthorized(err error) bool {
	var appErr *ApplicationError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.HTTPStatus == http.StatusUnauthorized || appErr.Code == http.StatusUnauthorized
}

// IsApplication reports whether err is an ApplicationError.
func IsApplication(err error) bool {
	var appErr *ApplicationError
	return errors.As(err, &appErr)
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

// Message returns the user-facing text for err.
func Message(err error) string {
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if IsTransport(err) {
		return ConnectivityMessage
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
