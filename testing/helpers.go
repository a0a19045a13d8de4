// Package testing provides HTTP test helpers shared by the service's
// package tests.
package testing

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cobrun/quote-engine/logging"
)

// TestContext creates a context with a timeout for testing.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestLogger returns a logger that writes into buf, or discards when buf
// is nil.
func TestLogger(buf *bytes.Buffer) *logging.Logger {
	if buf == nil {
		return logging.NewLoggerWithWriter("error", io.Discard)
	}
	return logging.NewLoggerWithWriter("debug", buf)
}

// HTTPTestRequest creates an HTTP request for testing.
type HTTPTestRequest struct {
	Method  string
	Path    string
	Body    any
	Raw     []byte
	Headers map[string]string
}

// NewHTTPTestRequest creates a new HTTP test request.
func NewHTTPTestRequest(method, path string) *HTTPTestRequest {
	return &HTTPTestRequest{
		Method:  method,
		Path:    path,
		Headers: make(map[string]string),
	}
}

// WithBody adds a JSON body to the request.
func (r *HTTPTestRequest) WithBody(body any) *HTTPTestRequest {
	r.Body = body
	return r
}

// WithRawBody sends body as-is, for malformed payloads.
func (r *HTTPTestRequest) WithRawBody(body string) *HTTPTestRequest {
	r.Raw = []byte(body)
	return r
}

// WithHeader adds a header to the request.
func (r *HTTPTestRequest) WithHeader(key, value string) *HTTPTestRequest {
	r.Headers[key] = value
	return r
}

// WithAuth adds an Authorization header with a Bearer token.
func (r *HTTPTestRequest) WithAuth(token string) *HTTPTestRequest {
	return r.WithHeader("Authorization", "Bearer "+token)
}

// WithServiceToken adds the internal service token header.
func (r *HTTPTestRequest) WithServiceToken(token string) *HTTPTestRequest {
	return r.WithHeader("X-Service-Token", token)
}

// WithContentType sets the Content-Type header.
func (r *HTTPTestRequest) WithContentType(contentType string) *HTTPTestRequest {
	return r.WithHeader("Content-Type", contentType)
}

// Build builds the HTTP request.
func (r *HTTPTestRequest) Build(t *testing.T) *http.Request {
	t.Helper()
	var body io.Reader
	switch {
	case r.Raw != nil:
		body = bytes.NewReader(r.Raw)
	case r.Body != nil:
		data, err := json.Marshal(r.Body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(r.Method, r.Path, body)
	for key, value := range r.Headers {
		req.Header.Set(key, value)
	}

	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	return req
}

// HTTPTestResponse wraps httptest.ResponseRecorder with helper methods.
type HTTPTestResponse struct {
	*httptest.ResponseRecorder
	t *testing.T
}

// NewHTTPTestResponse creates a new HTTP test response.
func NewHTTPTestResponse(t *testing.T) *HTTPTestResponse {
	return &HTTPTestResponse{
		ResponseRecorder: httptest.NewRecorder(),
		t:                t,
	}
}

// AssertStatus asserts the response status code.
func (r *HTTPTestResponse) AssertStatus(expected int) *HTTPTestResponse {
	r.t.Helper()
	if r.Code != expected {
		r.t.Errorf("expected status %d, got %d: %s", expected, r.Code, r.Body.String())
	}
	return r
}

// AssertOK asserts status 200.
func (r *HTTPTestResponse) AssertOK() *HTTPTestResponse {
	r.t.Helper()
	return r.AssertStatus(http.StatusOK)
}

// AssertCreated asserts status 201.
func (r *HTTPTestResponse) AssertCreated() *HTTPTestResponse {
	r.t.Helper()
	return r.AssertStatus(http.StatusCreated)
}

// AssertErrorCode asserts the error envelope carries code. It consumes
// the body.
func (r *HTTPTestResponse) AssertErrorCode(code string) *HTTPTestResponse {
	r.t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	r.DecodeJSON(&env)
	if env.Error.Code != code {
		r.t.Errorf("expected error code %s, got %q", code, env.Error.Code)
	}
	return r
}

// DecodeJSON decodes the response body as JSON.
func (r *HTTPTestResponse) DecodeJSON(v any) *HTTPTestResponse {
	r.t.Helper()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		r.t.Fatalf("failed to decode JSON: %v", err)
	}
	return r
}

// DecodeData decodes the data member of a success envelope into v.
func (r *HTTPTestResponse) DecodeData(v any) *HTTPTestResponse {
	r.t.Helper()
	env := struct {
		Success bool `json:"success"`
		Data    any  `json:"data"`
	}{Data: v}
	r.DecodeJSON(&env)
	if !env.Success {
		r.t.Errorf("expected success envelope")
	}
	return r
}

// ExecuteRequest executes a request against a handler.
func ExecuteRequest(t *testing.T, handler http.Handler, req *http.Request) *HTTPTestResponse {
	resp := NewHTTPTestResponse(t)
	handler.ServeHTTP(resp, req)
	return resp
}
