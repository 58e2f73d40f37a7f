// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package htmx provides helpers for htmx requests and responses.
package htmx

import (
	"net/http"
	"slices"
	"strings"
)

// Request headers.
const (
	HeaderRequest        = "HX-Request"
	HeaderCurrentURL     = "HX-Current-URL"
	HeaderHistoryRestore = "HX-History-Restore-Request"
	HeaderTarget         = "HX-Target"
	HeaderTrigger        = "HX-Trigger"
)

// Response headers.
const (
	HeaderRefresh         = "HX-Refresh"
	HeaderReswap          = "HX-Reswap"
	HeaderTriggerResponse = "HX-Trigger"
)

// Request describes an incoming htmx request.
type Request struct {
	CurrentURL       string
	Target           string
	Trigger          string
	IsHtmx           bool
	IsHistoryRestore bool
}

// ParseRequest extracts htmx information from request headers.
func ParseRequest(r *http.Request) *Request {
	return &Request{
		IsHtmx:           r.Header.Get(HeaderRequest) == "true",
		IsHistoryRestore: r.Header.Get(HeaderHistoryRestore) == "true",
		CurrentURL:       r.Header.Get(HeaderCurrentURL),
		Target:           r.Header.Get(HeaderTarget),
		Trigger:          r.Header.Get(HeaderTrigger),
	}
}

// Trigger adds client-side events to the HX-Trigger response header.
// Events already present are not repeated.
func Trigger(h http.Header, events ...string) {
	var current []string
	if v := h.Get(HeaderTriggerResponse); v != "" {
		for e := range strings.SplitSeq(v, ",") {
			current = append(current, strings.TrimSpace(e))
		}
	}
	for _, e := range events {
		if e != "" && !slices.Contains(current, e) {
			current = append(current, e)
		}
	}
	if len(current) > 0 {
		h.Set(HeaderTriggerResponse, strings.Join(current, ", "))
	}
}

// Refresh asks htmx to reload the whole page.
func Refresh(h http.Header) {
	h.Set(HeaderRefresh, "true")
}

// Reswap overrides the swap strategy of the request.
func Reswap(h http.Header, strategy string) {
	h.Set(HeaderReswap, strategy)
}
