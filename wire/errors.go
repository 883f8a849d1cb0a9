package wire

import (
	"errors"
	"fmt"
)

// ErrTimedOut is wrapped by the Timeout errors synthesized on the client side
// when a wait runs out of time.
var ErrTimedOut = errors.New("timed out")

// Error is a classified failure: either reported by the remote server through
// a non-zero response status, or synthesized locally with one of the same
// codes.
type Error struct {
	Code    StatusCode
	Message string
	// Local is true if the error did not come from the remote server.
	Local bool

	cause error
}

// NewError returns a classified error. An empty message is synthesized from
// the status code table.
func NewError(code StatusCode, message string) *Error {
	if message == "" {
		message = defaultMessage(code)
	}
	return &Error{Code: code, Message: message}
}

// NewTimeoutError returns the locally synthesized Timeout error of a wait.
func NewTimeoutError(message string) *Error {
	e := NewError(StatusTimeout, message)
	e.Local = true
	e.cause = ErrTimedOut
	return e
}

func defaultMessage(code StatusCode) string {
	if code.Known() {
		return fmt.Sprintf("%s (%d): %s", code, int(code), code.Description())
	}
	return fmt.Sprintf("webdriver error (%d)", int(code))
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the cause of a locally synthesized error, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// IsElementMissingOrInvisible reports whether the error is NoSuchElement or
// ElementNotVisible.
func (e *Error) IsElementMissingOrInvisible() bool {
	return e.Code.IsElementMissingOrInvisible()
}

// CodeOf returns the status code of the first classified error in err's chain.
func CodeOf(err error) (StatusCode, bool) {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Code, true
	}
	return 0, false
}

// HasCode reports whether err is classified with code.
func HasCode(err error, code StatusCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// IsElementMissingOrInvisible reports whether err is classified as one of the
// transient element failures.
func IsElementMissingOrInvisible(err error) bool {
	c, ok := CodeOf(err)
	return ok && c.IsElementMissingOrInvisible()
}

// TransportError is an unclassified failure talking to the remote server:
// the connection failed, the server answered with an HTTP client error, or
// its response could not be decoded.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the underlying failure.
func (e *TransportError) Unwrap() error {
	return e.Err
}
