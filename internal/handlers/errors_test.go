// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"codeberg.org/oliverandrich/space-signup/internal/handlers"
	"codeberg.org/oliverandrich/space-signup/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestErrorHandler_API(t *testing.T) {
	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/signup", nil)

	handlers.ErrorHandler(slog.Default())(echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded"), c)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}

func TestErrorHandler_Htmx(t *testing.T) {
	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/submit", nil)
	c.Request().Header.Set("HX-Request", "true")

	handlers.ErrorHandler(slog.Default())(echo.NewHTTPError(http.StatusForbidden, "invalid csrf token"), c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `hx-swap-oob="beforeend"`)
	assert.Contains(t, rec.Body.String(), "invalid csrf token")
}

func TestErrorHandler_Page(t *testing.T) {
	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/missing", nil)

	handlers.ErrorHandler(slog.Default())(echo.ErrNotFound, c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>404 Not Found</h1>")
}

func TestErrorHandler_InternalErrorHidesDetails(t *testing.T) {
	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/", nil)

	handlers.ErrorHandler(slog.Default())(errors.New("database is on fire"), c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "on fire")
}
