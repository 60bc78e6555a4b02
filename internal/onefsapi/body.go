package onefsapi

import (
	"bytes"
	"encoding/json"
	"strings"
)

// DecodeBody interprets a response payload the way PAPI consumers expect:
// valid JSON is decoded into the generic representation (map[string]any,
// []any, string, float64, bool, nil), anything else is returned verbatim as
// a string. A payload that fails to parse is never an error.
func DecodeBody(data []byte) any {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ""
	}
	var payload any
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return string(data)
	}
	return payload
}

// ErrorMessage extracts a human-readable message from a PAPI error body.
// OneFS wraps failures in {"errors":[{"code":...,"message":...}]}; when the
// envelope is present the messages are joined, otherwise the raw body text
// is returned as-is.
func ErrorMessage(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ""
	}

	var envelope struct {
		Errors []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil || len(envelope.Errors) == 0 {
		return string(trimmed)
	}

	parts := make([]string, 0, len(envelope.Errors))
	for _, e := range envelope.Errors {
		msg := e.Message
		if msg == "" {
			msg = e.Code
		}
		if msg != "" {
			parts = append(parts, msg)
		}
	}
	if len(parts) == 0 {
		return string(trimmed)
	}
	return strings.Join(parts, "; ")
}

// Session mirrors the payload returned by the session endpoint.
type Session struct {
	Username        string   `json:"username"`
	Services        []string `json:"services"`
	TimeoutAbsolute int      `json:"timeout_absolute"`
	TimeoutInactive int      `json:"timeout_inactive"`
}

// DecodeSession parses a session-endpoint response body. A body without the
// expected fields yields the zero Session rather than an error; callers only
// rely on the fields the server actually sent.
func DecodeSession(data []byte) (Session, error) {
	var s Session
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return Session{}, err
	}
	return s, nil
}
