// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"errors"
	"net/http"

	"codeberg.org/oliverandrich/space-signup/internal/backend"
	"codeberg.org/oliverandrich/space-signup/internal/htmx"
	"codeberg.org/oliverandrich/space-signup/internal/pages"
	"codeberg.org/oliverandrich/space-signup/internal/signup"
	"codeberg.org/oliverandrich/space-signup/internal/templates"
	"github.com/labstack/echo/v4"
)

// errPageGone tells the browser to reload; app.js does so on 404.
var errPageGone = echo.NewHTTPError(http.StatusNotFound, "This page has expired. Please reload it.")

// page returns the page addressed by the request's page token.
func (h *Handlers) page(c echo.Context) (*pages.Page, error) {
	token := c.FormValue(pages.TokenName)
	if token == "" {
		token = c.QueryParam(pages.TokenName)
	}
	p, err := h.pages.Lookup(token)
	if err != nil {
		return nil, errPageGone
	}
	return p, nil
}

// formError maps coordinator errors to HTTP errors.
func formError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, signup.ErrClosed):
		return errPageGone
	case errors.Is(err, signup.ErrUnknownField), errors.Is(err, signup.ErrInvalidDestination):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return err
	}
}

// SetField updates one field of the draft.
func (h *Handlers) SetField(c echo.Context) error {
	p, err := h.page(c)
	if err != nil {
		return err
	}
	field := signup.Field(c.FormValue("field"))
	if err := formError(p.Coordinator().Set(field, c.FormValue(string(field)))); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ImageLoaded records that the header image is shown.
func (h *Handlers) ImageLoaded(c echo.Context) error {
	p, err := h.page(c)
	if err != nil {
		return err
	}
	p.Coordinator().MarkImageLoaded()
	return c.NoContent(http.StatusNoContent)
}

// CaptchaVerify stores the token the widget produced.
func (h *Handlers) CaptchaVerify(c echo.Context) error {
	p, err := h.page(c)
	if err != nil {
		return err
	}
	p.Coordinator().Gate().Verify(c.FormValue("token"))
	return c.NoContent(http.StatusNoContent)
}

// CaptchaExpire discards the token after the widget reported expiry.
func (h *Handlers) CaptchaExpire(c echo.Context) error {
	p, err := h.page(c)
	if err != nil {
		return err
	}
	p.Coordinator().Gate().Expire()
	return c.NoContent(http.StatusNoContent)
}

// draftFields are the inputs a form post may carry.
var draftFields = []signup.Field{
	signup.FieldName,
	signup.FieldEmail,
	signup.FieldPassword,
	signup.FieldPasswordRepeat,
	signup.FieldDestination,
}

// applyPosted copies the field values sent with the form into the draft, so
// keystrokes whose own sync is still pending are not lost.
func applyPosted(c echo.Context, p *pages.Page) error {
	params, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	for _, field := range draftFields {
		values, ok := params[string(field)]
		if !ok || len(values) == 0 {
			continue
		}
		if err := formError(p.Coordinator().Set(field, values[0])); err != nil {
			return err
		}
	}
	return nil
}

// busy answers a request that arrived while another one is in flight. The
// page keeps its current markup.
func busy(c echo.Context) error {
	htmx.Reswap(c.Response().Header(), "none")
	return c.NoContent(http.StatusNoContent)
}

// Submit sends the draft to the signup endpoint and re-renders the buttons.
// The request runs to completion even if the browser goes away.
func (h *Handlers) Submit(c echo.Context) error {
	p, err := h.page(c)
	if err != nil {
		return err
	}
	if err := applyPosted(c, p); err != nil {
		return err
	}

	err = p.Coordinator().Submit(detached(c))
	switch {
	case errors.Is(err, signup.ErrClosed):
		return errPageGone
	case errors.Is(err, signup.ErrBusy):
		return busy(c)
	}

	if p.TakeReset() {
		htmx.Trigger(c.Response().Header(), pages.EventCaptchaReset)
	}

	v := h.view(p)
	return Render(c, http.StatusOK, templates.Actions(v), templates.ToastsOOB(p.TakePending()))
}

// Generate fills the draft with generated values and re-renders the fields.
func (h *Handlers) Generate(c echo.Context) error {
	p, err := h.page(c)
	if err != nil {
		return err
	}

	err = p.Coordinator().Generate(detached(c))
	switch {
	case errors.Is(err, signup.ErrClosed):
		return errPageGone
	case errors.Is(err, signup.ErrBusy):
		return busy(c)
	}

	v := h.view(p)
	return Render(c, http.StatusOK, templates.Fields(v), templates.ToastsOOB(p.TakePending()))
}

// detached returns a request context that outlives the request and carries
// the visitor address for the backend.
func detached(c echo.Context) context.Context {
	return backend.WithClientIP(context.WithoutCancel(c.Request().Context()), c.RealIP())
}
