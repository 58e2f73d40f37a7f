// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ctxkeys defines typed context keys used across packages.
package ctxkeys

// CSRFToken is the context key for the CSRF token.
type CSRFToken struct{}

// CSSPath is the context key for the stylesheet URL.
type CSSPath struct{}

// JSPath is the context key for the page script URL.
type JSPath struct{}
