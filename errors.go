package dbots

import (
	"errors"
	"fmt"
)

// ErrNoAPIKeys is returned by a post when the key store is empty.
var ErrNoAPIKeys = errors.New("dbots: no API keys available")

// ErrTokenRequired is returned by a service read operation that needs a
// token when the service client was built without one.
var ErrTokenRequired = errors.New("dbots: this endpoint requires a token")

// UnknownServiceError is returned when no registered service claims a key.
type UnknownServiceError struct {
	Key string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("dbots: unknown service %q", e.Key)
}

// MissingKeyError is returned when a specific service has no API key even
// though the key store itself is not empty.
type MissingKeyError struct {
	Service string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("dbots: service %q has no API key", e.Service)
}

// PostingUnsupportedError is returned by services that only expose read
// endpoints. It is a declared capability, not an I/O failure.
type PostingUnsupportedError struct {
	Service string
}

func (e *PostingUnsupportedError) Error() string {
	return fmt.Sprintf("dbots: service %q does not accept stat posts", e.Service)
}

// InvalidHandlerError is returned when a nil handler is registered for an
// event.
type InvalidHandlerError struct {
	Event string
}

func (e *InvalidHandlerError) Error() string {
	return fmt.Sprintf("dbots: nil handler registered for event %q", e.Event)
}

// HTTPError is the generic non-2xx failure. The 401/403/404 wrappers below
// embed it, so errors.As(err, &httpErr) matches every category.
type HTTPError struct {
	Response *HTTPResponse
}

func (e *HTTPError) Error() string {
	r := e.Response
	if r == nil {
		return "dbots: http request failed"
	}
	if r.Text != "" {
		return fmt.Sprintf("dbots: %s %s returned %d: %s", r.Method, r.URL, r.Status, r.Text)
	}
	return fmt.Sprintf("dbots: %s %s returned %d", r.Method, r.URL, r.Status)
}

// Status reports the HTTP status code, or 0 when no response was captured.
func (e *HTTPError) Status() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.Status
}

// UnauthorizedError reports a 401 response.
type UnauthorizedError struct {
	HTTPError
}

func (e *UnauthorizedError) Unwrap() error { return &e.HTTPError }

// ForbiddenError reports a 403 response.
type ForbiddenError struct {
	HTTPError
}

func (e *ForbiddenError) Unwrap() error { return &e.HTTPError }

// NotFoundError reports a 404 response.
type NotFoundError struct {
	HTTPError
}

func (e *NotFoundError) Unwrap() error { return &e.HTTPError }

// newHTTPError wraps a non-2xx response in its status category.
func newHTTPError(resp *HTTPResponse) error {
	switch resp.Status {
	case 401:
		return &UnauthorizedError{HTTPError{Response: resp}}
	case 403:
		return &ForbiddenError{HTTPError{Response: resp}}
	case 404:
		return &NotFoundError{HTTPError{Response: resp}}
	default:
		return &HTTPError{Response: resp}
	}
}
