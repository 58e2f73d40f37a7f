// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

//go:build dev

// Package assets serves static files straight from the source tree.
package assets

import (
	"net/http"
)

// CSSPath returns the URL of the stylesheet.
func CSSPath() string {
	return "/static/css/styles.css"
}

// JSPath returns the URL of the page script.
func JSPath() string {
	return "/static/js/app.js"
}

// Immutable reports whether asset URLs change with their content.
func Immutable() bool {
	return false
}

// FileServer returns an http.Handler that serves static files from the filesystem.
func FileServer() http.Handler {
	return http.FileServer(http.Dir("internal/assets/static"))
}
