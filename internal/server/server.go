// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/oliverandrich/space-signup/internal/assets"
	"codeberg.org/oliverandrich/space-signup/internal/backend"
	"codeberg.org/oliverandrich/space-signup/internal/captcha"
	"codeberg.org/oliverandrich/space-signup/internal/config"
	"codeberg.org/oliverandrich/space-signup/internal/database"
	"codeberg.org/oliverandrich/space-signup/internal/generator"
	"codeberg.org/oliverandrich/space-signup/internal/handlers"
	"codeberg.org/oliverandrich/space-signup/internal/pages"
	"codeberg.org/oliverandrich/space-signup/internal/repository"
	"codeberg.org/oliverandrich/space-signup/internal/services/email"
	"codeberg.org/oliverandrich/space-signup/internal/services/registration"
	"codeberg.org/oliverandrich/space-signup/internal/sse"
	"codeberg.org/oliverandrich/space-signup/internal/templates"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

const shutdownTimeout = 10 * time.Second

// Server is the assembled application: signup page, demo API and storage.
type Server struct {
	cfg    *config.Config
	echo   *echo.Echo
	db     *sqlx.DB
	pages  *pages.Store
	tls    *TLSSetup
	logger *slog.Logger
}

// Run starts the server with the given CLI command and blocks until it is
// interrupted.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	logger := newLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("close_failed", "error", err)
		}
	}()

	return srv.Start(ctx)
}

// New opens the database and wires every component.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := database.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{cfg: cfg, db: db, logger: logger}
	if err := s.wire(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) wire() error {
	cfg := s.cfg
	repo := repository.New(s.db)

	setup, err := SetupTLS(cfg)
	if err != nil {
		return fmt.Errorf("TLS setup failed: %w", err)
	}
	s.tls = setup

	backendClient, err := backendHTTPClient(cfg.Backend, setup)
	if err != nil {
		return fmt.Errorf("configuring backend client: %w", err)
	}

	verifier, err := captcha.NewVerifier(&cfg.Captcha, nil)
	if err != nil {
		return fmt.Errorf("configuring captcha: %w", err)
	}

	var mailer registration.Mailer
	if cfg.SMTP.Enabled() {
		svc, err := email.NewService(&cfg.SMTP, cfg.Server.BaseURL)
		if err != nil {
			return fmt.Errorf("configuring email: %w", err)
		}
		mailer = svc
	} else {
		s.logger.Info("welcome_mail_disabled")
	}

	gen, err := generator.New()
	if err != nil {
		return fmt.Errorf("loading generator: %w", err)
	}

	hub := sse.NewHub()
	store, err := pages.NewStore(pages.Options{
		Transport:   backend.NewWithHTTPClient(cfg.Backend.URL, backendClient),
		Hub:         hub,
		RenderToast: templates.RenderToast,
		Logger:      s.logger,
		HashKey:     cfg.Page.HashKey,
		BlockKey:    cfg.Page.BlockKey,
		TTL:         cfg.Page.TTL,
	})
	if err != nil {
		return fmt.Errorf("creating page store: %w", err)
	}
	s.pages = store

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// Trusts loopback and private ranges, so the page's own API calls keep
	// the visitor address.
	e.IPExtractor = echo.ExtractIPFromXFFHeader()
	e.HTTPErrorHandler = handlers.ErrorHandler(s.logger)
	e.Server.ReadHeaderTimeout = 10 * time.Second
	s.echo = e

	setupMiddleware(e, cfg, s.logger)

	h := handlers.New(repo, store, hub, verifier.SiteKey(), s.logger)
	api := handlers.NewAPI(registration.NewService(verifier, repo, mailer, s.logger), gen, s.logger)
	setupRoutes(e, h, api, cfg.API.RateLimit)
	return nil
}

func setupRoutes(e *echo.Echo, h *handlers.Handlers, api *handlers.API, rateLimit float64) {
	e.GET("/static/*", echo.WrapHandler(http.StripPrefix("/static/", assets.FileServer())))

	e.GET("/", h.Home)
	e.GET("/health", h.Health)
	e.GET("/events", h.Events)

	e.POST("/draft/field", h.SetField)
	e.POST("/draft/image-loaded", h.ImageLoaded)
	e.POST("/captcha/verify", h.CaptchaVerify)
	e.POST("/captcha/expire", h.CaptchaExpire)
	e.POST("/submit", h.Submit)
	e.POST("/generate", h.Generate)

	g := e.Group("/api", apiRateLimiter(rateLimit))
	g.POST("/signup", api.Signup)
	g.GET("/generate", api.Generate)
}

// Echo exposes the HTTP handler, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Close closes all open pages and the database.
func (s *Server) Close() error {
	if s.pages != nil {
		s.pages.Close()
	}
	return s.db.Close()
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	setup := s.tls
	errCh := make(chan error, 2)
	serve := func(name string, fn func() error) {
		go func() {
			if err := fn(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}

	addr := net.JoinHostPort(s.cfg.Server.Host, fmt.Sprint(s.cfg.Server.Port))
	var redirect *http.Server

	switch setup.Mode {
	case TLSModeOff:
		serve("http", func() error { return s.echo.Start(addr) })
	case TLSModeACME:
		serve("https", func() error { return s.startTLS(":443", setup.Config) })
		redirect = &http.Server{
			Addr:              ":80",
			Handler:           setup.Redirect,
			ReadHeaderTimeout: 10 * time.Second,
		}
		serve("redirect", redirect.ListenAndServe)
	default:
		serve("https", func() error { return s.startTLS(addr, setup.Config) })
	}
	s.logger.Info("server_running", "url", s.cfg.Server.BaseURL, "mode", setup.Mode)

	select {
	case <-ctx.Done():
		s.logger.Info("shutting_down")
	case err := <-errCh:
		s.logger.Error("server_error", "error", err)
		return err
	}

	// Closing the pages ends their event streams, which would otherwise
	// hold the shutdown open.
	s.pages.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown_failed", "error", err)
	}
	if redirect != nil {
		if err := redirect.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("redirect_shutdown_failed", "error", err)
		}
	}

	s.logger.Info("server_stopped")
	return nil
}

// startTLS serves the Echo instance on addr with a prepared TLS config.
func (s *Server) startTLS(addr string, tlsConfig *tls.Config) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	s.echo.TLSListener = tls.NewListener(ln, tlsConfig)
	s.echo.TLSServer.TLSConfig = tlsConfig
	s.echo.TLSServer.Handler = s.echo
	s.echo.TLSServer.ReadHeaderTimeout = 10 * time.Second
	return s.echo.TLSServer.Serve(s.echo.TLSListener)
}
