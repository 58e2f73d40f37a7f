// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package signup_test

import (
	"errors"
	"testing"

	"codeberg.org/oliverandrich/space-signup/internal/signup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_VerifyAndToken(t *testing.T) {
	g := signup.NewGate(nil)

	_, ok := g.Token()
	assert.False(t, ok)

	g.Verify("tok")
	token, ok := g.Token()
	assert.True(t, ok)
	assert.Equal(t, "tok", token)
}

func TestGate_VerifyEmptyToken(t *testing.T) {
	g := signup.NewGate(nil)
	g.Verify("tok")

	g.Verify("")

	_, ok := g.Token()
	assert.False(t, ok)
}

func TestGate_ExpireIdempotent(t *testing.T) {
	g := signup.NewGate(nil)
	g.Verify("tok")

	g.Expire()
	_, once := g.Token()
	g.Expire()
	_, twice := g.Token()

	assert.False(t, once)
	assert.Equal(t, once, twice)
}

func TestGate_Reset(t *testing.T) {
	resets := 0
	g := signup.NewGate(signup.WidgetFunc(func() { resets++ }))
	g.Verify("tok")

	g.Reset()

	_, ok := g.Token()
	assert.False(t, ok)
	assert.Equal(t, 1, resets)
}

func TestGate_ZeroValue(t *testing.T) {
	var g signup.Gate

	g.Reset()
	g.Verify("tok")

	token, ok := g.Token()
	assert.True(t, ok)
	assert.Equal(t, "tok", token)
}

func TestParseDestination(t *testing.T) {
	for _, d := range signup.Destinations() {
		got, err := signup.ParseDestination(string(d))
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}

	empty, err := signup.ParseDestination("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = signup.ParseDestination("mars")
	assert.ErrorIs(t, err, signup.ErrInvalidDestination)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"reason", &signup.FailureError{Status: 400, Reason: "name is required"}, "name is required"},
		{"status only", &signup.FailureError{Status: 502}, "Bad Gateway"},
		{"wrapped", errors.Join(errors.New("ctx"), &signup.FailureError{Status: 409, Reason: "taken"}), "taken"},
		{"plain", errors.New("dial tcp: refused"), "dial tcp: refused"},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, signup.Describe(tt.err))
		})
	}
}

func TestFailureError_Error(t *testing.T) {
	assert.Equal(t, "taken", (&signup.FailureError{Status: 409, Reason: "taken"}).Error())
	assert.Equal(t, "request failed with status 500", (&signup.FailureError{Status: 500}).Error())
}
