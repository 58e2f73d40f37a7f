// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"codeberg.org/oliverandrich/space-signup/internal/captcha"
	"codeberg.org/oliverandrich/space-signup/internal/generator"
	"codeberg.org/oliverandrich/space-signup/internal/handlers"
	"codeberg.org/oliverandrich/space-signup/internal/services/registration"
	"codeberg.org/oliverandrich/space-signup/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubVerifier struct {
	err error
}

func (s stubVerifier) Verify(context.Context, string, string) (*captcha.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &captcha.Result{Success: true}, nil
}

func newAPI(t *testing.T, verifyErr error) (*handlers.API, *echo.Echo) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	reg := registration.NewService(stubVerifier{err: verifyErr}, repo, nil, nil)
	reg.SetHashCost(bcrypt.MinCost)
	gen, err := generator.New()
	require.NoError(t, err)
	return handlers.NewAPI(reg, gen, nil), echo.New()
}

const validSignup = `{"token":"tok","name":"Ada","email":"ada@example.com","password":"p","passwordRepeat":"q","destination":"Mars"}`

func TestAPISignup_Created(t *testing.T) {
	api, e := newAPI(t, nil)
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/signup", strings.NewReader(validSignup))

	require.NoError(t, api.Signup(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["id"])
}

func TestAPISignup_Errors(t *testing.T) {
	tests := []struct {
		name      string
		verifyErr error
		body      string
		status    int
		message   string
	}{
		{"malformed body", nil, `{`, http.StatusBadRequest, "invalid request body"},
		{"captcha rejected", &captcha.RejectedError{}, validSignup, http.StatusBadRequest, "Captcha verification failed"},
		{"captcha missing", captcha.ErrMissingToken, validSignup, http.StatusBadRequest, "Captcha verification failed"},
		{"captcha down", assert.AnError, validSignup, http.StatusBadGateway, "unavailable"},
		{"missing name", nil, `{"token":"tok","email":"a@b.io","password":"p"}`, http.StatusUnprocessableEntity, "name is required"},
		{"bad email", nil, `{"token":"tok","name":"A","email":"nope","password":"p"}`, http.StatusUnprocessableEntity, "invalid email address"},
		{"bad planet", nil, `{"token":"tok","name":"A","email":"a@b.io","password":"p","destination":"Pluto"}`, http.StatusUnprocessableEntity, "invalid destination"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, e := newAPI(t, tt.verifyErr)
			c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/signup", strings.NewReader(tt.body))

			require.NoError(t, api.Signup(c))

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.message)
		})
	}
}

func TestAPISignup_Duplicate(t *testing.T) {
	api, e := newAPI(t, nil)
	c, _ := testutil.NewEchoContext(e, http.MethodPost, "/api/signup", strings.NewReader(validSignup))
	require.NoError(t, api.Signup(c))

	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/api/signup", strings.NewReader(validSignup))
	require.NoError(t, api.Signup(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"email already registered"}`, rec.Body.String())
}

func TestAPIGenerate(t *testing.T) {
	api, e := newAPI(t, nil)
	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/api/generate", nil)

	require.NoError(t, api.Generate(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	for _, key := range []string{"randomName", "randomEmail", "randomPlanet", "randomPassword"} {
		assert.NotEmpty(t, body[key], key)
	}
}
