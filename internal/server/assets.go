// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"log/slog"

	"codeberg.org/oliverandrich/space-signup/internal/assets"
	"codeberg.org/oliverandrich/space-signup/internal/ctxkeys"
	"github.com/labstack/echo/v4"
)

// Assets holds the URLs the layout links to.
type Assets struct {
	CSSPath string
	JSPath  string
}

// findAssets resolves the asset URLs of the current build.
func findAssets() Assets {
	a := Assets{
		CSSPath: assets.CSSPath(),
		JSPath:  assets.JSPath(),
	}
	slog.Debug("assets_loaded", "css", a.CSSPath, "js", a.JSPath)
	return a
}

func assetsImmutable() bool {
	return assets.Immutable()
}

// assetsToContext makes the asset URLs available to templates.
func assetsToContext(a Assets) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, ctxkeys.CSSPath{}, a.CSSPath)
			ctx = context.WithValue(ctx, ctxkeys.JSPath{}, a.JSPath)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
