// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package backend implements signup.Transport over HTTP.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"codeberg.org/oliverandrich/space-signup/internal/signup"
	"github.com/labstack/echo/v4"
)

// maxErrorBody bounds how much of a failed response is read for its reason.
const maxErrorBody = 64 << 10

type clientIPKey struct{}

// WithClientIP records the address of the visitor a request is made for.
// The client forwards it in X-Forwarded-For.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func forwardClientIP(ctx context.Context, req *http.Request) {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok && ip != "" {
		req.Header.Set(echo.HeaderXForwardedFor, ip)
	}
}

// Client talks to the /signup and /generate endpoints below BaseURL.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ signup.Transport = (*Client)(nil)

// New creates a client for the endpoints below baseURL.
// A zero timeout leaves requests unbounded.
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient creates a client using the given HTTP client.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    hc,
	}
}

// Signup posts the request as JSON. Any 2xx response counts as success.
func (c *Client) Signup(ctx context.Context, req signup.SignupRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding signup request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/signup", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building signup request: %w", err)
	}
	httpReq.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	httpReq.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	forwardClientIP(ctx, httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending signup request: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return failure(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Generate fetches a set of random form values.
func (c *Client) Generate(ctx context.Context) (signup.Generated, error) {
	var out signup.Generated

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/generate", nil)
	if err != nil {
		return out, fmt.Errorf("building generate request: %w", err)
	}
	httpReq.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	forwardClientIP(ctx, httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return out, fmt.Errorf("sending generate request: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return out, failure(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return signup.Generated{}, fmt.Errorf("decoding generate response: %w", err)
	}
	return out, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// errorBody is the error shape returned by the bundled API.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// failure reads a rejected response into a FailureError.
// The reason is the JSON error field when present, otherwise the raw text.
func failure(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	f := &signup.FailureError{Status: resp.StatusCode}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		switch {
		case body.Error != "":
			f.Reason = body.Error
		case body.Message != "":
			f.Reason = body.Message
		}
		return f
	}
	f.Reason = strings.TrimSpace(string(raw))
	return f
}
