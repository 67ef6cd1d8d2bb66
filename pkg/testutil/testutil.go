// Package testutil provides a small HTTP client and assertion helpers for
// exercising the development backend in tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// Client wraps an httptest server with JSON request helpers.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string // bearer token attached to every request when set
	t          *testing.T
}

// NewClient creates a Client pointed at a test server.
func NewClient(t *testing.T, server *httptest.Server) *Client {
	return &Client{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		t:          t,
	}
}

// Response wraps an HTTP response for assertions.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	t          *testing.T
}

// JSON unmarshals the body into v, failing the test on error.
func (r *Response) JSON(v any) {
	r.t.Helper()
	if err := json.Unmarshal(r.Body, v); err != nil {
		r.t.Fatalf("unmarshal response: %v\nbody: %s", err, r.Body)
	}
}

// JSONMap returns the body as a generic map.
func (r *Response) JSONMap() map[string]any {
	r.t.Helper()
	var m map[string]any
	r.JSON(&m)
	return m
}

// Data returns the "data" object of a success envelope.
func (r *Response) Data() map[string]any {
	r.t.Helper()
	m := r.JSONMap()
	if m["success"] != true {
		r.t.Fatalf("expected success envelope, got: %s", r.Body)
	}
	data, ok := m["data"].(map[string]any)
	if !ok {
		r.t.Fatalf("expected data object, got: %s", r.Body)
	}
	return data
}

// AssertStatus asserts the response status code.
func (r *Response) AssertStatus(expected int) *Response {
	r.t.Helper()
	if r.StatusCode != expected {
		r.t.Errorf("expected status %d, got %d\nbody: %s", expected, r.StatusCode, r.Body)
	}
	return r
}

// AssertBodyContains asserts the body contains the substring.
func (r *Response) AssertBodyContains(substr string) *Response {
	r.t.Helper()
	if !strings.Contains(string(r.Body), substr) {
		r.t.Errorf("expected body to contain %q, got: %s", substr, r.Body)
	}
	return r
}

// Get performs a GET request.
func (c *Client) Get(path string) *Response {
	c.t.Helper()
	return c.Do("GET", path, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(path string, body any) *Response {
	c.t.Helper()
	return c.Do("POST", path, body)
}

// Do performs an arbitrary JSON request, attaching the bearer token when
// one is set.
func (c *Client) Do(method, path string, body any) *Response {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		c.t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("read response body: %v", err)
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Body:       data,
		Headers:    resp.Header,
		t:          c.t,
	}
}
