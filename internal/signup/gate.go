// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package signup

import "sync"

// Widget is the handle of the challenge rendered on the page.
type Widget interface {
	// Reset puts the challenge back into its unsolved state.
	Reset()
}

// WidgetFunc adapts a function to Widget.
type WidgetFunc func()

// Reset calls f().
func (f WidgetFunc) Reset() { f() }

// Gate holds the verification token issued by the challenge widget.
// The zero value has no widget attached and holds no token.
type Gate struct {
	mu     sync.Mutex
	token  string
	widget Widget
}

// NewGate returns a gate that resets w whenever the token is discarded by Reset.
func NewGate(w Widget) *Gate {
	return &Gate{widget: w}
}

// Verify stores the token issued by a solved challenge.
// An empty token counts as no verification.
func (g *Gate) Verify(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = token
}

// Expire drops the token. Calling it repeatedly has no further effect.
func (g *Gate) Expire() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = ""
}

// Token returns the current token and whether one is held.
func (g *Gate) Token() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token, g.token != ""
}

// Reset drops the token and forces the widget back to unsolved.
func (g *Gate) Reset() {
	if w := g.discard(); w != nil {
		w.Reset()
	}
}

// discard drops the token and returns the widget still to be reset.
func (g *Gate) discard() Widget {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = ""
	return g.widget
}
