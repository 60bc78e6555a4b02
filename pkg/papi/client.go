package papi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mupplelabs/basepapi/internal/httpx"
	"github.com/mupplelabs/basepapi/internal/onefsapi"
)

const (
	sessionPath = "/session/1/session"
	csrfCookie  = "isicsrf"
	csrfHeader  = "X-CSRF-Token"

	// ServicePlatform is the management-plane API surface.
	ServicePlatform = "platform"
	// ServiceNamespace is the file-namespace API surface.
	ServiceNamespace = "namespace"

	// DefaultPort is the PAPI listener port on OneFS nodes.
	DefaultPort = 8080
	// DefaultTimeout bounds every call, connect included.
	DefaultTimeout = 15 * time.Second
	// DefaultUserAgent identifies this client to the cluster.
	DefaultUserAgent = "OneFS PlatformAPI Client for Go"
)

// Option configures a Client.
type Option func(*config)

type config struct {
	port       int
	timeout    time.Duration
	verifyTLS  bool
	service    string
	userAgent  string
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
}

// WithPort overrides the PAPI port (default 8080).
func WithPort(port int) Option {
	return func(c *config) {
		if port > 0 {
			c.port = port
		}
	}
}

// WithTimeout overrides the call timeout (default 15s). The timeout applies
// uniformly to every call on the client.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTLSVerify enables server-certificate verification. Verification is off
// by default, matching the self-signed certificates clusters ship with. The
// setting is scoped to this client's transport.
func WithTLSVerify(verify bool) Option {
	return func(c *config) {
		c.verifyTLS = verify
	}
}

// WithService selects the API service the session is requested for.
// Known values are ServicePlatform (default) and ServiceNamespace.
func WithService(service string) Option {
	return func(c *config) {
		if s := strings.Trim(strings.TrimSpace(service), "/"); s != "" {
			c.service = s
		}
	}
}

// WithUserAgent overrides the client identification string.
func WithUserAgent(agent string) Option {
	return func(c *config) {
		if agent != "" {
			c.userAgent = agent
		}
	}
}

// WithLogger attaches a structured logger. Each dispatched call is logged at
// debug level with a correlation id. Logging is off by default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client. The override must
// carry a cookie jar, or the session cookie is lost between calls.
func WithHTTPClient(h *http.Client) Option {
	return func(c *config) {
		c.httpClient = h
	}
}

// WithBaseURL overrides the https://host:port base URL entirely. Intended
// for tests and for clusters reached through a proxy.
func WithBaseURL(raw string) Option {
	return func(c *config) {
		c.baseURL = raw
	}
}

// Client is a session-authenticated PAPI client. The zero value is not
// usable; construct one with New or NewFromEnv.
type Client struct {
	transport *httpx.Client
	logger    *slog.Logger

	username string
	password string
	service  string

	mu        sync.Mutex
	connected bool
	services  []string
	csrfToken string
	origin    string
}

// New constructs a Client for the given cluster node. The client holds no
// session yet; the first call (or an explicit Connect) authenticates.
func New(host, username, password string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(host) == "" {
		return nil, errors.New("papi: host is required")
	}
	if strings.TrimSpace(username) == "" {
		return nil, errors.New("papi: username is required")
	}
	if password == "" {
		return nil, errors.New("papi: password is required")
	}

	cfg := &config{
		port:      DefaultPort,
		timeout:   DefaultTimeout,
		verifyTLS: false,
		service:   ServicePlatform,
		userAgent: DefaultUserAgent,
		logger:    slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	baseURL := cfg.baseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s:%d", host, cfg.port)
	}

	defaults := http.Header{}
	defaults.Set("Content-Type", "application/json")
	defaults.Set("User-Agent", cfg.userAgent)

	transportOpts := []httpx.Option{
		httpx.WithHeaders(defaults),
		httpx.WithTimeout(cfg.timeout),
		httpx.WithTLSVerify(cfg.verifyTLS),
	}
	if cfg.httpClient != nil {
		transportOpts = append(transportOpts, httpx.WithHTTPClient(cfg.httpClient))
	}

	transport, err := httpx.NewClient(baseURL, transportOpts...)
	if err != nil {
		return nil, fmt.Errorf("papi: init transport: %w", err)
	}

	return &Client{
		transport: transport,
		logger:    cfg.logger,
		username:  username,
		password:  password,
		service:   cfg.service,
	}, nil
}

// Connected reports whether the client holds a session it believes is live.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Services returns the service names the current session is authorized for.
func (c *Client) Services() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.services...)
}

// BaseURL reports the resolved https://host:port base URL.
func (c *Client) BaseURL() string {
	return c.transport.BaseURL()
}

// Connect authenticates against the session endpoint with the configured
// credentials and requested service. On success the session cookie lives in
// the transport's jar and the server-issued CSRF token plus Origin are sent
// on every subsequent call. Calling Connect on a live client simply
// re-authenticates and overwrites the session state.
func (c *Client) Connect(ctx context.Context) (*Response, error) {
	creds := map[string]any{
		"username": c.username,
		"password": c.password,
		"services": []string{c.service},
	}
	body, contentType, err := httpx.WithJSONBody(creds)
	if err != nil {
		return nil, fmt.Errorf("papi: encode credentials: %w", err)
	}

	resp, err := c.transport.Do(ctx, &httpx.Request{
		Method: http.MethodPost,
		Path:   sessionPath,
		Header: http.Header{"Content-Type": {contentType}},
		Body:   body,
	})
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	if resp.StatusCode >= 400 {
		// Connection state is untouched: a failed connect never held one.
		return nil, newHTTPError(resp, data)
	}

	session, err := onefsapi.DecodeSession(data)
	if err != nil {
		c.logger.Debug("papi: session payload not decodable", "error", err)
	}

	c.mu.Lock()
	c.csrfToken = cookieValue(resp, csrfCookie)
	c.origin = c.transport.BaseURL()
	c.services = session.Services
	c.connected = true
	c.mu.Unlock()

	c.logger.Debug("papi: session established",
		"services", session.Services, "status", resp.StatusCode)

	return newResponse(resp, data), nil
}

// Disconnect deletes the session. Any response, success or not, drops the
// local session state; the status code is deliberately not checked, so a
// cluster refusing the delete still leaves the client disconnected. Only a
// transport failure is an error.
func (c *Client) Disconnect(ctx context.Context) (*Response, error) {
	resp, err := c.transport.Do(ctx, &httpx.Request{
		Method: http.MethodDelete,
		Path:   sessionPath,
		Header: c.sessionHeaders(),
	})
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	c.dropSession()
	return newResponse(resp, data), nil
}

// Status queries the session endpoint for the current session's validity.
// A non-2xx answer drops the local session state before the *HTTPError is
// returned; a transport failure leaves the state untouched.
func (c *Client) Status(ctx context.Context) (*Response, error) {
	resp, err := c.transport.Do(ctx, &httpx.Request{
		Method: http.MethodGet,
		Path:   sessionPath,
		Header: c.sessionHeaders(),
	})
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	if resp.StatusCode >= 400 {
		c.dropSession()
		return nil, newHTTPError(resp, data)
	}
	return newResponse(resp, data), nil
}

// CallOptions carries the optional parts of a verb call.
type CallOptions struct {
	// Body is serialized as the JSON payload when non-nil.
	Body any
	// Query is appended to the target URL.
	Query url.Values
	// Header holds one-off headers merged into this call only. They never
	// leak into subsequent calls.
	Header http.Header
}

// Get issues a GET against the service-prefixed path.
func (c *Client) Get(ctx context.Context, path string, opts *CallOptions) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, opts)
}

// Put issues a PUT against the service-prefixed path.
func (c *Client) Put(ctx context.Context, path string, opts *CallOptions) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, opts)
}

// Post issues a POST against the service-prefixed path.
func (c *Client) Post(ctx context.Context, path string, opts *CallOptions) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, opts)
}

// Head issues a HEAD against the service-prefixed path.
func (c *Client) Head(ctx context.Context, path string, opts *CallOptions) (*Response, error) {
	return c.do(ctx, http.MethodHead, path, opts)
}

// Delete issues a DELETE against the service-prefixed path.
func (c *Client) Delete(ctx context.Context, path string, opts *CallOptions) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, opts)
}

// do funnels every verb call: it guarantees a live session, prefixes the
// path with the session's service, sends the request, and normalizes the
// outcome. A 401 drops the session so the next call re-authenticates.
func (c *Client) do(ctx context.Context, method, path string, opts *CallOptions) (*Response, error) {
	if opts == nil {
		opts = &CallOptions{}
	}
	if !c.Connected() {
		if _, err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	fullPath := "/" + c.service + path

	header := c.sessionHeaders()
	for k, values := range opts.Header {
		header.Del(k)
		for _, v := range values {
			header.Add(k, v)
		}
	}

	var body io.Reader
	if opts.Body != nil {
		r, contentType, err := httpx.WithJSONBody(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("papi: encode request body: %w", err)
		}
		body = r
		header.Set("Content-Type", contentType)
	}

	callID := uuid.NewString()
	start := time.Now()
	resp, err := c.transport.Do(ctx, &httpx.Request{
		Method: method,
		Path:   fullPath,
		Query:  opts.Query,
		Header: header,
		Body:   body,
	})
	if err != nil {
		c.logger.Debug("papi: call failed",
			"call_id", callID, "method", method, "path", fullPath, "error", err)
		return nil, &ConnectionError{Err: err}
	}
	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.dropSession()
		}
		c.logger.Debug("papi: call rejected",
			"call_id", callID, "method", method, "path", fullPath,
			"status", resp.StatusCode, "duration", time.Since(start))
		return nil, newHTTPError(resp, data)
	}

	c.logger.Debug("papi: call completed",
		"call_id", callID, "method", method, "path", fullPath,
		"status", resp.StatusCode, "duration", time.Since(start))

	return newResponse(resp, data), nil
}

// sessionHeaders returns the per-request headers carrying the session's CSRF
// token and Origin. The transport's defaults are never mutated; the returned
// header set is merged into a per-request clone inside the transport.
func (c *Client) sessionHeaders() http.Header {
	c.mu.Lock()
	defer c.mu.Unlock()

	header := http.Header{}
	if c.origin != "" {
		header.Set("Origin", c.origin)
	}
	if c.csrfToken != "" {
		header.Set(csrfHeader, c.csrfToken)
	}
	return header
}

func (c *Client) dropSession() {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}

func cookieValue(resp *http.Response, name string) string {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}
