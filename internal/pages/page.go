// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package pages

import (
	"html"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/oliverandrich/space-signup/internal/signup"
	"codeberg.org/oliverandrich/space-signup/internal/sse"
)

// Event names pushed to a page's stream.
const (
	EventToast        = "toast"
	EventCaptchaReset = "captcha-reset"
)

// ToastRenderer turns a notification into the HTML fragment shown on the page.
type ToastRenderer func(n signup.Notification) (string, error)

// Page is one rendered signup form.
type Page struct {
	ID    string
	Token string

	coordinator *signup.Coordinator
	hub         *sse.Hub
	render      ToastRenderer
	lastSeen    atomic.Int64

	mu           sync.Mutex
	pending      []signup.Notification
	resetPending bool
}

// Coordinator returns the form state of the page.
func (p *Page) Coordinator() *signup.Coordinator {
	return p.coordinator
}

func (p *Page) touch(now time.Time) {
	p.lastSeen.Store(now.UnixNano())
}

// LastSeen returns the time of the last request for the page.
func (p *Page) LastSeen() time.Time {
	return time.Unix(0, p.lastSeen.Load())
}

// Notify pushes n to the page's streams. When no stream takes it the
// notification is kept until TakePending.
func (p *Page) Notify(n signup.Notification) {
	n.Description = sanitize(n.Description)

	fragment, err := p.render(n)
	if err == nil && p.hub.Send(p.ID, sse.FormatEvent(EventToast, fragment)) > 0 {
		return
	}

	p.mu.Lock()
	p.pending = append(p.pending, n)
	p.mu.Unlock()
}

// TakePending returns and clears notifications no stream received.
func (p *Page) TakePending() []signup.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	pending := p.pending
	p.pending = nil
	return pending
}

// Reset asks the page to reset its captcha widget. Without a connected
// stream the reset is kept until TakeReset.
func (p *Page) Reset() {
	if p.hub.Send(p.ID, sse.FormatEvent(EventCaptchaReset, "")) > 0 {
		return
	}
	p.mu.Lock()
	p.resetPending = true
	p.mu.Unlock()
}

// TakeReset reports and clears a reset no stream received.
func (p *Page) TakeReset() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	pending := p.resetPending
	p.resetPending = false
	return pending
}

// sanitize strips markup and returns plain text; the renderer escapes it.
func sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}
