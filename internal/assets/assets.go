// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

//go:build !dev

// Package assets provides embedded static assets with content-hashed URLs.
package assets

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"net/http"
)

//go:embed static
var staticFS embed.FS

var (
	cssPath = versioned("css/styles.css")
	jsPath  = versioned("js/app.js")
)

// versioned returns the URL of name with a query derived from its content.
func versioned(name string) string {
	url := "/static/" + name
	data, err := fs.ReadFile(staticFS, "static/"+name)
	if err != nil {
		slog.Error("asset missing", "name", name, "error", err)
		return url
	}
	sum := sha256.Sum256(data)
	return url + "?v=" + hex.EncodeToString(sum[:])[:12]
}

// CSSPath returns the URL of the stylesheet.
func CSSPath() string {
	return cssPath
}

// JSPath returns the URL of the page script.
func JSPath() string {
	return jsPath
}

// Immutable reports whether asset URLs change with their content.
func Immutable() bool {
	return true
}

// FileServer returns an http.Handler that serves embedded static files.
func FileServer() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("failed to create sub filesystem: " + err.Error())
	}
	return http.FileServer(http.FS(sub))
}
