// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package signup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// SignupRequest is sent to the signup endpoint.
type SignupRequest struct {
	Token          string      `json:"token"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Password       string      `json:"password"`
	PasswordRepeat string      `json:"passwordRepeat"`
	Destination    Destination `json:"destination"`
}

// Generated is the payload of the generation endpoint.
type Generated struct {
	Name     string `json:"randomName"`
	Email    string `json:"randomEmail"`
	Planet   string `json:"randomPlanet"`
	Password string `json:"randomPassword"`
}

// Transport reaches the signup and generation endpoints.
type Transport interface {
	Signup(ctx context.Context, req SignupRequest) error
	Generate(ctx context.Context) (Generated, error)
}

// FailureError is a rejection reported by an endpoint.
type FailureError struct {
	Status int
	Reason string
}

func (e *FailureError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Reason
}

// Describe turns any request error into a description fit for a notification.
func Describe(err error) string {
	var failure *FailureError
	if errors.As(err, &failure) {
		if failure.Reason != "" {
			return failure.Reason
		}
		if text := http.StatusText(failure.Status); text != "" {
			return text
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
