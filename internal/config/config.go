// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"fmt"
	"strings"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

// hCaptcha publishes these keys for local testing. Every token verifies.
const (
	TestSiteKey = "10000000-ffff-ffff-ffff-000000000001"
	TestSecret  = "0x0000000000000000000000000000000000000000"
)

var (
	configPath = "config.toml"
	configFile = altsrc.NewStringPtrSourcer(&configPath)
)

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	TLS      TLSConfig
	Captcha  CaptchaConfig
	Backend  BackendConfig
	Page     PageConfig
	SMTP     SMTPConfig
	API      APIConfig
}

type TLSConfig struct {
	Mode     string // auto, acme, selfsigned, manual, off
	CertDir  string // Directory for auto-generated certificates
	Email    string // ACME email for Let's Encrypt
	CertFile string // Path to certificate file (manual mode)
	KeyFile  string // Path to private key file (manual mode)
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

// CaptchaConfig holds the hCaptcha widget and siteverify settings.
type CaptchaConfig struct {
	SiteKey   string // public key rendered into the widget
	Secret    string // server-side siteverify secret
	VerifyURL string
	Hostname  string // expected challenge hostname, empty accepts any
}

// BackendConfig points the signup page at the /signup and /generate endpoints.
type BackendConfig struct {
	URL     string        // defaults to BaseURL + "/api"
	Timeout time.Duration // 0 disables the timeout
	Local   bool          // URL is the bundled API of this server
}

type PageConfig struct { //nolint:govet // fieldalignment not critical
	TTL      time.Duration // idle pages are closed after this
	HashKey  string        // 32-byte hex string for HMAC signing
	BlockKey string        // 32-byte hex string for AES encryption (optional)
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

// Enabled reports whether welcome mails can be sent.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

type APIConfig struct {
	RateLimit float64 // requests per second per client, 0 disables
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		TLS: TLSConfig{
			Mode:     cmd.String("tls-mode"),
			CertDir:  cmd.String("tls-cert-dir"),
			Email:    cmd.String("tls-email"),
			CertFile: cmd.String("tls-cert-file"),
			KeyFile:  cmd.String("tls-key-file"),
		},
		Captcha: CaptchaConfig{
			SiteKey:   cmd.String("captcha-site-key"),
			Secret:    cmd.String("captcha-secret"),
			VerifyURL: cmd.String("captcha-verify-url"),
			Hostname:  cmd.String("captcha-hostname"),
		},
		Backend: BackendConfig{
			URL:     cmd.String("backend-url"),
			Timeout: cmd.Duration("backend-timeout"),
		},
		Page: PageConfig{
			TTL:      cmd.Duration("page-ttl"),
			HashKey:  cmd.String("page-hash-key"),
			BlockKey: cmd.String("page-block-key"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		API: APIConfig{
			RateLimit: cmd.Float("api-rate-limit"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}

	applyBackendDefaults(cfg)

	return cfg
}

// applyBackendDefaults points the page at the bundled API unless another backend is configured.
func applyBackendDefaults(cfg *Config) {
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = strings.TrimSuffix(cfg.Server.BaseURL, "/") + "/api"
		cfg.Backend.Local = true
	}
	cfg.Backend.URL = strings.TrimSuffix(cfg.Backend.URL, "/")
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	port := cfg.Server.Port
	mode := strings.ToLower(cfg.TLS.Mode)

	scheme := "http"
	if shouldUseTLS(mode, host) {
		scheme = "https"
	}

	// ACME always terminates on 443
	if mode == "acme" {
		return fmt.Sprintf("https://%s", host)
	}

	if (scheme == "http" && port == 80) || (scheme == "https" && port == 443) {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

func shouldUseTLS(mode, host string) bool {
	switch mode {
	case "off":
		return false
	case "acme", "selfsigned", "manual":
		return true
	default: // "auto" or empty
		return !IsLocalhost(host)
	}
}

// IsLocalhost checks if the host is a localhost address.
func IsLocalhost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	return strings.HasSuffix(host, ".localhost")
}

// sources chains an environment variable with a key in the TOML config file.
func sources(envKey, tomlKey string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(cli.EnvVar(envKey), toml.TOML(tomlKey, configFile))
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Value:       "config.toml",
			Usage:       "Path to configuration file",
			Destination: &configPath,
			Sources:     cli.EnvVars("CONFIG"),
		},
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: sources("HOST", "server.host"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: sources("PORT", "server.port"),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL for the application",
			Sources: sources("BASE_URL", "server.base_url"),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: sources("MAX_BODY_SIZE", "server.max_body_size"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: sources("LOG_LEVEL", "log.level"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: sources("LOG_FORMAT", "log.format"),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/signup.db",
			Usage:   "Database DSN",
			Sources: sources("DATABASE_DSN", "database.dsn"),
		},
		&cli.StringFlag{
			Name:    "tls-mode",
			Value:   "auto",
			Usage:   "TLS mode (auto, acme, selfsigned, manual, off)",
			Sources: sources("TLS_MODE", "tls.mode"),
		},
		&cli.StringFlag{
			Name:    "tls-cert-dir",
			Value:   "./data/certs",
			Usage:   "Directory for auto-generated certificates",
			Sources: sources("TLS_CERT_DIR", "tls.cert_dir"),
		},
		&cli.StringFlag{
			Name:    "tls-email",
			Usage:   "Email for ACME/Let's Encrypt registration",
			Sources: sources("TLS_EMAIL", "tls.email"),
		},
		&cli.StringFlag{
			Name:    "tls-cert-file",
			Usage:   "Path to TLS certificate file (manual mode)",
			Sources: sources("TLS_CERT_FILE", "tls.cert_file"),
		},
		&cli.StringFlag{
			Name:    "tls-key-file",
			Usage:   "Path to TLS private key file (manual mode)",
			Sources: sources("TLS_KEY_FILE", "tls.key_file"),
		},
		// Captcha flags
		&cli.StringFlag{
			Name:    "captcha-site-key",
			Value:   TestSiteKey,
			Usage:   "hCaptcha site key rendered into the widget",
			Sources: sources("CAPTCHA_SITE_KEY", "captcha.site_key"),
		},
		&cli.StringFlag{
			Name:    "captcha-secret",
			Value:   TestSecret,
			Usage:   "hCaptcha secret used for siteverify",
			Sources: sources("CAPTCHA_SECRET", "captcha.secret"),
		},
		&cli.StringFlag{
			Name:    "captcha-verify-url",
			Value:   "https://api.hcaptcha.com/siteverify",
			Usage:   "hCaptcha siteverify endpoint",
			Sources: sources("CAPTCHA_VERIFY_URL", "captcha.verify_url"),
		},
		&cli.StringFlag{
			Name:    "captcha-hostname",
			Usage:   "Hostname the captcha must have been solved on (any if empty)",
			Sources: sources("CAPTCHA_HOSTNAME", "captcha.hostname"),
		},
		// Backend flags
		&cli.StringFlag{
			Name:    "backend-url",
			Usage:   "Base URL of the signup backend (defaults to base_url/api)",
			Sources: sources("BACKEND_URL", "backend.url"),
		},
		&cli.DurationFlag{
			Name:    "backend-timeout",
			Usage:   "Timeout for backend requests (0 disables)",
			Sources: sources("BACKEND_TIMEOUT", "backend.timeout"),
		},
		// Page flags
		&cli.DurationFlag{
			Name:    "page-ttl",
			Value:   30 * time.Minute,
			Usage:   "Idle time after which an open signup page is discarded",
			Sources: sources("PAGE_TTL", "page.ttl"),
		},
		&cli.StringFlag{
			Name:    "page-hash-key",
			Usage:   "Page token hash key (32-byte hex, random if empty)",
			Sources: sources("PAGE_HASH_KEY", "page.hash_key"),
		},
		&cli.StringFlag{
			Name:    "page-block-key",
			Usage:   "Page token block key for encryption (32-byte hex, optional)",
			Sources: sources("PAGE_BLOCK_KEY", "page.block_key"),
		},
		// SMTP flags
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP host for welcome mails (disabled if empty)",
			Sources: sources("SMTP_HOST", "smtp.host"),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP port",
			Sources: sources("SMTP_PORT", "smtp.port"),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: sources("SMTP_USERNAME", "smtp.username"),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: sources("SMTP_PASSWORD", "smtp.password"),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Sender address for welcome mails",
			Sources: sources("SMTP_FROM", "smtp.from"),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Value:   "Space Signup",
			Usage:   "Sender display name",
			Sources: sources("SMTP_FROM_NAME", "smtp.from_name"),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: sources("SMTP_TLS", "smtp.tls"),
		},
		// API flags
		&cli.FloatFlag{
			Name:    "api-rate-limit",
			Value:   5,
			Usage:   "Requests per second per client on /api (0 disables)",
			Sources: sources("API_RATE_LIMIT", "api.rate_limit"),
		},
	}
}
