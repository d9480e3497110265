package apiclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// FallbackMessage is shown when a failed call carries no usable message.
const FallbackMessage = "Une erreur est survenue"

// ErrUnauthenticated matches (via errors.Is) every *Error with status 401.
var ErrUnauthenticated = errors.New("apiclient: unauthenticated")

// ErrForeignOrigin is returned, before anything is sent, for an absolute URL
// outside the API origin.
var ErrForeignOrigin = errors.New("apiclient: URL outside the API origin")

// Error is returned for every call that did not succeed.
type Error struct {
	Method string
	Path   string
	// StatusCode is 0 when no response was received.
	StatusCode int
	// Message is what the user was told; empty for a silent 401.
	Message string
	// Body is the raw response payload, if any.
	Body []byte
	// Err is the transport or decoding cause, if any.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("%s %s: request failed: %v", e.Method, e.Path, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s %s (status %d): %v", e.Method, e.Path, e.StatusCode, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s %s (status %d): %s", e.Method, e.Path, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s %s (status %d)", e.Method, e.Path, e.StatusCode)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports 401 responses as ErrUnauthenticated.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthenticated && e.StatusCode == http.StatusUnauthorized
}

// Transport reports whether the call failed before any response arrived.
func (e *Error) Transport() bool {
	return e.StatusCode == 0
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

func newStatusError(r Request, status int, body []byte) *Error {
	message := MessageFromPayload(body)
	if message == "" && status != http.StatusUnauthorized {
		message = FallbackMessage
	}
	return &Error{
		Method:     r.Method,
		Path:       r.Path,
		StatusCode: status,
		Message:    message,
		Body:       body,
	}
}

// MessageFromPayload returns the string "message" field of a JSON error
// payload, else its string "error" field, else "".
func MessageFromPayload(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, field := range []string{"message", "error"} {
		result := gjson.GetBytes(body, field)
		if result.Type == gjson.String && result.Str != "" {
			return result.Str
		}
	}
	return ""
}
