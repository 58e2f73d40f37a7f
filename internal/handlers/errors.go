// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"codeberg.org/oliverandrich/space-signup/internal/htmx"
	"codeberg.org/oliverandrich/space-signup/internal/signup"
	"codeberg.org/oliverandrich/space-signup/internal/templates"
	"github.com/labstack/echo/v4"
)

// ErrorHandler renders errors as JSON under /api, as a toast for htmx
// requests and as an error page otherwise.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Something went wrong. Please try again."
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		}
		if code >= http.StatusInternalServerError {
			logger.Error("request_failed", "path", c.Request().URL.Path, "error", err)
		}

		if rerr := respondError(c, code, message); rerr != nil {
			logger.Error("error_response_failed", "error", rerr)
		}
	}
}

func respondError(c echo.Context, code int, message string) error {
	req := c.Request()

	if strings.HasPrefix(req.URL.Path, "/api/") {
		return c.JSON(code, errorBody{Error: message})
	}
	if req.Method == http.MethodHead {
		return c.NoContent(code)
	}
	if htmx.ParseRequest(req).IsHtmx {
		// app.js swaps only the toast of error responses and reloads on 404.
		return Render(c, code, templates.ToastsOOB([]signup.Notification{{
			Kind:        signup.KindError,
			Title:       "Error",
			Description: message,
			Duration:    4 * time.Second,
		}}))
	}

	title := http.StatusText(code)
	if title == "" {
		title = "Error"
	}
	return Render(c, code, templates.Error(code, title, message))
}
