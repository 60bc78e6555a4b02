package httpx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoMergesHeadersPerRequest(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	defaults := http.Header{}
	defaults.Set("User-Agent", "test-agent")
	defaults.Set("Content-Type", "application/json")

	client, err := NewClient(srv.URL, WithHeaders(defaults))
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), &Request{
		Method: http.MethodGet,
		Path:   "/one",
		Header: http.Header{"X-Extra": {"yes"}, "Content-Type": {"text/plain"}},
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "test-agent", got.Get("User-Agent"))
	assert.Equal(t, "yes", got.Get("X-Extra"))
	assert.Equal(t, "text/plain", got.Get("Content-Type"), "per-request header overrides the default")

	resp, err = client.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/two"})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, got.Get("X-Extra"), "defaults must stay untouched by earlier merges")
	assert.Equal(t, "application/json", got.Get("Content-Type"))
}

func TestDoPersistsCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/issue":
			http.SetCookie(w, &http.Cookie{Name: "isisessid", Value: "abc", Path: "/"})
			w.WriteHeader(http.StatusOK)
		case "/check":
			cookie, err := r.Cookie("isisessid")
			if err != nil || cookie.Value != "abc" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/issue"})
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = client.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/check"})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "jar must replay the session cookie")
}

func TestDoBuildsURLWithQuery(t *testing.T) {
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), &Request{
		Method: http.MethodGet,
		Path:   "platform/1/quota/quotas", // missing leading slash is tolerated
		Query:  map[string][]string{"resolve_names": {"true"}},
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/platform/1/quota/quotas?resolve_names=true", gotURL)
}

func TestDoDoesNotRetryOrConsumeErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, "down")
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/x"})
	require.NoError(t, err, "status policy belongs to the caller, not the transport")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "down", string(body))
	assert.Equal(t, 1, attempts)
}

func TestDoValidation(t *testing.T) {
	client, err := NewClient("https://node:8080")
	require.NoError(t, err)

	_, err = client.Do(context.Background(), nil)
	require.Error(t, err)

	_, err = client.Do(context.Background(), &Request{Path: "/x"})
	require.Error(t, err)

	_, err = NewClient("")
	require.Error(t, err)

	_, err = NewClient("://bad")
	require.Error(t, err)
}

func TestWithJSONBody(t *testing.T) {
	reader, contentType, err := WithJSONBody(map[string]any{"a": 1, "html": "<b>"})
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)

	data, err := io.ReadAll(reader)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(1), decoded["a"])
	assert.Equal(t, "<b>", decoded["html"], "HTML escaping must be off")
}

func TestBaseURLTrimsTrailingSlash(t *testing.T) {
	client, err := NewClient("https://node:8080/")
	require.NoError(t, err)
	assert.Equal(t, "https://node:8080", client.BaseURL())
}
