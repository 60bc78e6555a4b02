package papi

import (
	"fmt"
	"net/http"

	"github.com/mupplelabs/basepapi/internal/onefsapi"
)

// ConnectionError reports a transport-level failure: DNS resolution, a
// refused connection, or a timeout before any response arrived.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("papi: connection error: %v", e.Err)
}

// Unwrap exposes the underlying transport error for errors.Is/As.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// HTTPError reports a non-2xx response from the cluster. Message holds the
// text extracted from the PAPI error envelope when the server sent one, the
// raw body text otherwise.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       []byte
	Header     http.Header
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("papi: http error: status=%d message=%s", e.StatusCode, e.Message)
}

func newHTTPError(resp *http.Response, body []byte) *HTTPError {
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Message:    onefsapi.ErrorMessage(body),
		Body:       body,
		Header:     resp.Header.Clone(),
	}
}
