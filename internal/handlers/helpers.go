// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render renders templ components in order with the given status code.
func Render(c echo.Context, statusCode int, components ...templ.Component) error {
	buf := templ.GetBuffer()
	defer templ.ReleaseBuffer(buf)

	ctx := c.Request().Context()
	for _, component := range components {
		if err := component.Render(ctx, buf); err != nil {
			return err
		}
	}

	return c.HTML(statusCode, buf.String())
}
