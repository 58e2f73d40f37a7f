// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package captcha verifies hCaptcha response tokens with the siteverify API.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codeberg.org/oliverandrich/space-signup/internal/config"
	"github.com/labstack/echo/v4"
)

// ErrMissingToken is returned when no response token was supplied.
var ErrMissingToken = errors.New("captcha token missing")

// CodeHostnameMismatch reports a token solved for a different hostname.
const CodeHostnameMismatch = "hostname-mismatch"

// RejectedError is returned when hCaptcha does not accept a token.
type RejectedError struct {
	Codes []string
}

func (e *RejectedError) Error() string {
	if len(e.Codes) == 0 {
		return "captcha rejected"
	}
	return "captcha rejected: " + strings.Join(e.Codes, ", ")
}

// Result is the decoded siteverify answer.
type Result struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Verifier checks tokens against the siteverify endpoint.
type Verifier struct {
	cfg  *config.CaptchaConfig
	http *http.Client
}

// NewVerifier creates a verifier. Nil hc uses a client with a 10s timeout.
func NewVerifier(cfg *config.CaptchaConfig, hc *http.Client) (*Verifier, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("captcha secret is required")
	}
	if cfg.VerifyURL == "" {
		return nil, fmt.Errorf("captcha verify URL is required")
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Verifier{cfg: cfg, http: hc}, nil
}

// SiteKey returns the public key the widget is rendered with.
func (v *Verifier) SiteKey() string {
	return v.cfg.SiteKey
}

// Verify checks token. remoteIP is optional.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) (*Result, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	form := url.Values{}
	form.Set("secret", v.cfg.Secret)
	form.Set("response", token)
	if v.cfg.SiteKey != "" {
		form.Set("sitekey", v.cfg.SiteKey)
	}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building siteverify request: %w", err)
	}
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	resp, err := v.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling siteverify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("siteverify returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding siteverify response: %w", err)
	}
	if !result.Success {
		return &result, &RejectedError{Codes: result.ErrorCodes}
	}
	// A token solved on another site is valid for the key but not for us.
	if v.cfg.Hostname != "" && !strings.EqualFold(result.Hostname, v.cfg.Hostname) {
		return &result, &RejectedError{Codes: []string{CodeHostnameMismatch}}
	}
	return &result, nil
}
