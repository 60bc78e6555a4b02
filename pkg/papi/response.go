package papi

import (
	"net/http"

	"github.com/mupplelabs/basepapi/internal/onefsapi"
)

// Response is an immutable snapshot of one HTTP exchange. Body holds the
// JSON-decoded payload (map[string]any, []any, string, float64, bool or nil)
// when the server sent valid JSON, and the raw body text otherwise; an
// unparsable body is never an error. URL and RequestHeaders record the
// resolved target and the outbound headers that were in effect for the call.
type Response struct {
	Status         int
	Headers        http.Header
	Body           any
	URL            string
	RequestHeaders http.Header
}

func newResponse(resp *http.Response, body []byte) *Response {
	r := &Response{
		Status:  resp.StatusCode,
		Headers: resp.Header.Clone(),
		Body:    onefsapi.DecodeBody(body),
	}
	if resp.Request != nil {
		r.URL = resp.Request.URL.String()
		r.RequestHeaders = resp.Request.Header.Clone()
	}
	return r
}
