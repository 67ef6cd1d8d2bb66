// Package api is the typed client for the perkloop backend REST API. It is
// the single point of egress for all calls: every request goes through one
// transport that attaches the bearer token, decodes the {success, data|error}
// envelope, and classifies failures into NetworkError, AuthError,
// ServerError, or ValidationError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds every request. Absence of a response within it is
// classified as a NetworkError.
const DefaultTimeout = 15 * time.Second

// Auth supplies the current access token and can exchange the refresh token
// for a new pair. The session store implements it.
type Auth interface {
	AccessToken() string
	RefreshToken(ctx context.Context) error
}

// Client talks to the backend. Zero-value fields are filled in by New; use
// Bind to attach a token source once the session store exists.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger

	mu   sync.RWMutex
	auth Auth

	// refreshMu makes the 401-triggered refresh single-flight so concurrent
	// failing requests do not race token writes.
	refreshMu sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger attaches a logger. Requests are logged at debug level,
// failures at warn.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bind attaches the token source used for the Authorization header and for
// the one-shot refresh-and-retry on 401.
func (c *Client) Bind(a Auth) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = a
}

// BaseURL returns the resolved backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// SetBaseURL swaps the backend base URL at runtime (config reload).
func (c *Client) SetBaseURL(u string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimRight(u, "/")
}

// envelope is the wire convention every backend response follows. Data is
// only trusted when Success is true.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
}

// do issues one request with a single refresh-and-retry: if the first
// attempt comes back 401 and a token source is bound, the refresh token is
// exchanged once and the request replayed. A second 401 surfaces as-is.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	err := c.doOnce(ctx, method, path, query, body, out)
	if err == nil {
		return nil
	}
	if _, isAuth := err.(*AuthError); !isAuth {
		return err
	}

	c.mu.RLock()
	auth := c.auth
	c.mu.RUnlock()
	if auth == nil {
		return err
	}

	c.refreshMu.Lock()
	refreshErr := auth.RefreshToken(ctx)
	c.refreshMu.Unlock()
	if refreshErr != nil {
		c.log.Warn().Err(refreshErr).Str("path", path).Msg("token refresh after 401 failed")
		return err
	}

	return c.doOnce(ctx, method, path, query, body, out)
}

// doOnce performs exactly one HTTP round trip. Used directly by the auth
// endpoints, which must never trigger a recursive refresh.
func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, body, out any) error {
	c.mu.RLock()
	base := c.baseURL
	auth := c.auth
	c.mu.RUnlock()

	u := base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("building %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != nil {
		if tok := auth.AccessToken(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return &NetworkError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{URL: u, Err: err}
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request")

	if resp.StatusCode == http.StatusUnauthorized {
		return &AuthError{Message: envelopeMessage(raw)}
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if resp.StatusCode >= 400 {
				return &ServerError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
			}
			return fmt.Errorf("decoding %s response: %w", path, err)
		}
	}

	if resp.StatusCode >= 400 || !env.Success {
		return &ServerError{Status: resp.StatusCode, Code: env.Code, Message: env.Error}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding %s data: %w", path, err)
		}
	}
	return nil
}

// envelopeMessage pulls the backend error string out of a raw body, best
// effort.
func envelopeMessage(raw []byte) string {
	var env envelope
	if json.Unmarshal(raw, &env) == nil && env.Error != "" {
		return env.Error
	}
	return ""
}
