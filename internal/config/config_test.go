// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v3"
)

func TestIsLocalhost(t *testing.T) {
	tests := []struct {
		host     string
		expected bool
	}{
		{"", true},
		{"localhost", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"app.localhost", true},
		{"example.com", false},
		{"192.168.1.1", false},
		{"localhost.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsLocalhost(tt.host))
		})
	}
}

func TestShouldUseTLS(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		host     string
		expected bool
	}{
		{"off mode", "off", "example.com", false},
		{"acme mode", "acme", "localhost", true},
		{"selfsigned mode", "selfsigned", "localhost", true},
		{"manual mode", "manual", "localhost", true},
		{"auto mode with localhost", "auto", "localhost", false},
		{"auto mode with remote host", "auto", "example.com", true},
		{"empty mode with localhost", "", "localhost", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shouldUseTLS(tt.mode, tt.host))
		})
	}
}

func TestBuildBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *Config
		expected string
	}{
		{
			name: "localhost HTTP default port",
			cfg: &Config{
				Server: ServerConfig{Host: "localhost", Port: 80},
				TLS:    TLSConfig{Mode: "off"},
			},
			expected: "http://localhost",
		},
		{
			name: "localhost HTTP custom port",
			cfg: &Config{
				Server: ServerConfig{Host: "localhost", Port: 8080},
				TLS:    TLSConfig{Mode: "off"},
			},
			expected: "http://localhost:8080",
		},
		{
			name: "remote host with auto TLS",
			cfg: &Config{
				Server: ServerConfig{Host: "example.com", Port: 443},
				TLS:    TLSConfig{Mode: "auto"},
			},
			expected: "https://example.com",
		},
		{
			name: "ACME mode forces port 443",
			cfg: &Config{
				Server: ServerConfig{Host: "example.com", Port: 8080},
				TLS:    TLSConfig{Mode: "acme"},
			},
			expected: "https://example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildBaseURL(tt.cfg))
		})
	}
}

func TestApplyBackendDefaults(t *testing.T) {
	t.Run("derives from base url", func(t *testing.T) {
		cfg := &Config{Server: ServerConfig{BaseURL: "http://localhost:8080/"}}

		applyBackendDefaults(cfg)

		assert.Equal(t, "http://localhost:8080/api", cfg.Backend.URL)
		assert.True(t, cfg.Backend.Local)
	})

	t.Run("keeps explicit url without trailing slash", func(t *testing.T) {
		cfg := &Config{
			Server:  ServerConfig{BaseURL: "http://localhost:8080"},
			Backend: BackendConfig{URL: "https://api.example.com/v1/"},
		}

		applyBackendDefaults(cfg)

		assert.Equal(t, "https://api.example.com/v1", cfg.Backend.URL)
		assert.False(t, cfg.Backend.Local)
	})
}

func TestSMTPConfig_Enabled(t *testing.T) {
	assert.False(t, SMTPConfig{}.Enabled())
	assert.False(t, SMTPConfig{Host: "smtp.example.com"}.Enabled())
	assert.True(t, SMTPConfig{Host: "smtp.example.com", From: "noreply@example.com"}.Enabled())
}

func TestFlags(t *testing.T) {
	flagNames := make(map[string]bool)
	for _, f := range Flags() {
		for _, name := range f.Names() {
			flagNames[name] = true
		}
	}

	for _, name := range []string{
		"config", "host", "port", "base-url", "log-level", "database-dsn", "tls-mode",
		"captcha-site-key", "captcha-secret", "captcha-hostname", "backend-url", "backend-timeout",
		"page-ttl", "page-hash-key", "smtp-host", "api-rate-limit",
	} {
		assert.True(t, flagNames[name], "should have %s flag", name)
	}
}

func TestNewFromCLI(t *testing.T) {
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.Equal(t, "localhost", cfg.Server.Host)
			assert.Equal(t, 8080, cfg.Server.Port)
			assert.Equal(t, "info", cfg.Log.Level)
			assert.Equal(t, "text", cfg.Log.Format)
			assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
			assert.Equal(t, "http://localhost:8080/api", cfg.Backend.URL)
			assert.Zero(t, cfg.Backend.Timeout)
			assert.Equal(t, 30*time.Minute, cfg.Page.TTL)
			assert.Equal(t, TestSiteKey, cfg.Captcha.SiteKey)
			assert.Equal(t, TestSecret, cfg.Captcha.Secret)
			assert.False(t, cfg.SMTP.Enabled())
			assert.InDelta(t, 5.0, cfg.API.RateLimit, 0.001)

			return nil
		},
	}

	err := app.Run(context.Background(), []string{"test"})
	assert.NoError(t, err)
}

func TestNewFromCLI_WithCustomValues(t *testing.T) {
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.Equal(t, "0.0.0.0", cfg.Server.Host)
			assert.Equal(t, 9000, cfg.Server.Port)
			assert.Equal(t, "https://example.com", cfg.Server.BaseURL)
			assert.Equal(t, "https://backend.example.com", cfg.Backend.URL)
			assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
			assert.Equal(t, "site-key", cfg.Captcha.SiteKey)
			assert.Equal(t, "example.com", cfg.Captcha.Hostname)
			assert.False(t, cfg.Backend.Local)

			return nil
		},
	}

	args := []string{
		"test",
		"--host", "0.0.0.0",
		"--port", "9000",
		"--base-url", "https://example.com",
		"--backend-url", "https://backend.example.com/",
		"--backend-timeout", "5s",
		"--captcha-site-key", "site-key",
		"--captcha-hostname", "example.com",
	}
	err := app.Run(context.Background(), args)
	assert.NoError(t, err)
}

func TestNewFromCLI_SelfSigned(t *testing.T) {
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.Equal(t, "https://0.0.0.0:8443", cfg.Server.BaseURL)
			assert.Equal(t, "https://0.0.0.0:8443/api", cfg.Backend.URL)
			assert.True(t, cfg.Backend.Local, "the server's own API needs its certificate trusted")

			return nil
		},
	}

	args := []string{"test", "--host", "0.0.0.0", "--port", "8443", "--tls-mode", "selfsigned"}
	err := app.Run(context.Background(), args)
	assert.NoError(t, err)
}
