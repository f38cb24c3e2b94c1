package relay

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Error tiers. Every error produced by the router carries one of these marks,
// so callers and hooks can classify failures with errors.Is.
var (
	// ErrConfig marks registration-time configuration errors. These are
	// returned from New and never occur during dispatch.
	ErrConfig = errors.New("relay: configuration error")

	// ErrNoRoute marks an HTTP event whose verb and resource are not registered.
	ErrNoRoute = errors.New("relay: unregistered route")

	// ErrNoListener marks a listener event that no listener accepted.
	ErrNoListener = errors.New("relay: no listener matched")

	// ErrResolve marks a failure to obtain a handler from the Resolver, or a
	// resolved value that lacks the expected method.
	ErrResolve = errors.New("relay: handler resolution failed")

	// ErrInternal marks unexpected failures such as handler panics. Their
	// message is never shown to callers.
	ErrInternal = errors.New("relay: internal error")
)

// internalMessage is what callers see for ErrInternal failures.
const internalMessage = "Internal server error"

// StatusCoder is implemented by errors that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// HTTPError is the tagged error handlers return to choose the status code of
// an HTTP envelope. Its message is surfaced to callers.
type HTTPError struct {
	Code    int
	Message string
}

// NewHTTPError creates an HTTPError. An empty message defaults to the
// status text for code.
func NewHTTPError(code int, message string) *HTTPError {
	if message == "" {
		message = http.StatusText(code)
	}
	return &HTTPError{Code: code, Message: message}
}

// HTTPErrorf creates an HTTPError with a formatted message.
func HTTPErrorf(code int, format string, args ...any) *HTTPError {
	return NewHTTPError(code, fmt.Sprintf(format, args...))
}

func (e *HTTPError) Error() string {
	return e.Message
}

// StatusCode implements StatusCoder.
func (e *HTTPError) StatusCode() int {
	return e.Code
}

// statusOf returns the first status code carried in err's chain, or 500.
func statusOf(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code >= 100 && code <= 599 {
			return code
		}
	}
	return http.StatusInternalServerError
}

// publicMessage is the message shown to callers. Internal failures are
// redacted; every other tier surfaces its own text.
func publicMessage(err error) string {
	if errors.Is(err, ErrInternal) {
		return internalMessage
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Message
	}
	return err.Error()
}

func configErrorf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrConfig)
}

// panicError converts a recovered panic value into an ErrInternal error.
func panicError(target string, r any) error {
	if err, ok := r.(error); ok {
		return errors.Mark(errors.Wrapf(err, "panic in %s", target), ErrInternal)
	}
	return errors.Mark(errors.Newf("panic in %s: %v", target, r), ErrInternal)
}
