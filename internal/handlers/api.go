// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/space-signup/internal/captcha"
	"codeberg.org/oliverandrich/space-signup/internal/generator"
	"codeberg.org/oliverandrich/space-signup/internal/services/registration"
	"codeberg.org/oliverandrich/space-signup/internal/signup"
	"github.com/labstack/echo/v4"
)

// API serves the demo backend the signup page talks to.
type API struct {
	registration *registration.Service
	generator    *generator.Generator
	logger       *slog.Logger
}

// NewAPI creates the backend handlers.
func NewAPI(reg *registration.Service, gen *generator.Generator, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{registration: reg, generator: gen, logger: logger}
}

type errorBody struct {
	Error string `json:"error"`
}

type createdBody struct {
	ID string `json:"id"`
}

// Signup creates an account from the JSON body.
func (a *API) Signup(c echo.Context) error {
	var req signup.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid request body"})
	}

	acc, err := a.registration.Register(c.Request().Context(), registration.Input{
		Token:          req.Token,
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		PasswordRepeat: req.PasswordRepeat,
		Destination:    string(req.Destination),
		RemoteIP:       c.RealIP(),
	})
	if err != nil {
		status, message := a.signupError(err)
		return c.JSON(status, errorBody{Error: message})
	}

	return c.JSON(http.StatusCreated, createdBody{ID: acc.ID})
}

func (a *API) signupError(err error) (int, string) {
	var (
		rejected *captcha.RejectedError
		fieldErr *registration.FieldError
	)
	switch {
	case errors.Is(err, captcha.ErrMissingToken), errors.As(err, &rejected):
		return http.StatusBadRequest, "Captcha verification failed. Please verify again."
	case errors.Is(err, registration.ErrCaptchaUnavailable):
		return http.StatusBadGateway, "Captcha verification is unavailable. Please try again later."
	case errors.As(err, &fieldErr):
		return http.StatusUnprocessableEntity, fieldErr.Error()
	case errors.Is(err, registration.ErrInvalidEmail), errors.Is(err, signup.ErrInvalidDestination):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, registration.ErrEmailTaken):
		return http.StatusConflict, err.Error()
	default:
		a.logger.Error("signup_failed", "error", err)
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}

// Generate returns random values for the form.
func (a *API) Generate(c echo.Context) error {
	v, err := a.generator.Generate()
	if err != nil {
		a.logger.Error("generate_failed", "error", err)
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "Could not generate values."})
	}
	return c.JSON(http.StatusOK, signup.Generated{
		Name:     v.Name,
		Email:    v.Email,
		Planet:   v.Planet,
		Password: v.Password,
	})
}
