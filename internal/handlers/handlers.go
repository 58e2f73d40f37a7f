// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers contains the HTTP handlers of the signup page and the demo backend.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"codeberg.org/oliverandrich/space-signup/internal/pages"
	"codeberg.org/oliverandrich/space-signup/internal/repository"
	"codeberg.org/oliverandrich/space-signup/internal/sse"
	"codeberg.org/oliverandrich/space-signup/internal/templates"
	"github.com/labstack/echo/v4"
)

// DefaultHeartbeat is the interval of keep-alive comments on event streams.
const DefaultHeartbeat = 30 * time.Second

// Handlers serves the signup page.
type Handlers struct {
	repo      *repository.Repository
	pages     *pages.Store
	hub       *sse.Hub
	siteKey   string
	heartbeat time.Duration
	logger    *slog.Logger
}

// New creates a new Handlers instance.
func New(repo *repository.Repository, store *pages.Store, hub *sse.Hub, siteKey string, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		repo:      repo,
		pages:     store,
		hub:       hub,
		siteKey:   siteKey,
		heartbeat: DefaultHeartbeat,
		logger:    logger,
	}
}

// SetHeartbeat changes the keep-alive interval of event streams.
func (h *Handlers) SetHeartbeat(d time.Duration) {
	h.heartbeat = d
}

// Health reports whether the database is reachable.
func (h *Handlers) Health(c echo.Context) error {
	status := http.StatusOK
	body := map[string]any{
		"status":  "ok",
		"pages":   h.pages.Len(),
		"streams": h.hub.StreamCount(),
	}

	if h.repo != nil {
		accounts, err := h.repo.CountAccounts(c.Request().Context())
		if err != nil {
			h.logger.Error("health_check_failed", "error", err)
			status = http.StatusServiceUnavailable
			body["status"] = "unavailable"
		} else {
			body["accounts"] = accounts
		}
	}

	return c.JSON(status, body)
}

// Home opens a new page with an empty form and renders it.
func (h *Handlers) Home(c echo.Context) error {
	p, err := h.pages.Open()
	if err != nil {
		return err
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return Render(c, http.StatusOK, templates.Home(h.view(p)))
}

func (h *Handlers) view(p *pages.Page) templates.FormView {
	return templates.NewFormView(p.Token, h.siteKey, p.Coordinator().State())
}
