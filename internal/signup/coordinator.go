// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package signup

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	// ErrVerificationRequired is returned when submit is attempted without a token.
	ErrVerificationRequired = errors.New("verification required")
	// ErrBusy is returned while another request of the same form is in flight.
	ErrBusy = errors.New("request already in flight")
	// ErrClosed is returned once the form has been closed.
	ErrClosed = errors.New("form closed")
)

// Coordinator owns the draft of one form and runs its submit and generate cycles.
// At most one request is in flight at a time.
type Coordinator struct {
	transport Transport
	notifier  Notifier
	gate      *Gate
	logger    *slog.Logger

	mu      sync.Mutex
	draft   Draft
	loading bool
	closed  bool
}

// New creates a coordinator with an empty draft and no verification token.
// A nil logger falls back to slog.Default().
func New(transport Transport, notifier Notifier, widget Widget, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		transport: transport,
		notifier:  notifier,
		gate:      NewGate(widget),
		logger:    logger,
	}
}

// Gate returns the verification gate of the form.
func (c *Coordinator) Gate() *Gate {
	return c.gate
}

// Set updates a single field of the draft.
func (c *Coordinator) Set(field Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	return c.draft.set(field, value)
}

// MarkImageLoaded records that the header image finished loading.
func (c *Coordinator) MarkImageLoaded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.ImageLoaded = true
}

// State returns a snapshot of the form.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, verified := c.gate.Token()
	return State{
		Draft:    c.draft,
		Verified: verified,
		Loading:  c.loading,
	}
}

// Submit sends the draft to the signup endpoint.
//
// Without a verification token it notifies and returns ErrVerificationRequired
// without contacting the endpoint. Otherwise the token is consumed: once the
// request settles the gate is reset and loading cleared, whatever the outcome.
func (c *Coordinator) Submit(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkIdleLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	// Token check and request build share the lock with loading, so an
	// expiry between the two cannot slip a stale token through.
	token, ok := c.gate.Token()
	if !ok {
		c.mu.Unlock()
		c.notifier.Notify(verificationMissing())
		return ErrVerificationRequired
	}
	c.loading = true
	req := SignupRequest{
		Token:          token,
		Name:           c.draft.Name,
		Email:          c.draft.Email,
		Password:       c.draft.Password,
		PasswordRepeat: c.draft.PasswordRepeat,
		Destination:    c.draft.Destination,
	}
	c.mu.Unlock()

	err := c.transport.Signup(ctx, req)

	c.mu.Lock()
	widget := c.gate.discard()
	c.loading = false
	closed := c.closed
	c.mu.Unlock()

	if closed {
		c.logger.Debug("signup settled after close", "error", err)
		return ErrClosed
	}

	if widget != nil {
		widget.Reset()
	}

	if err != nil {
		c.logger.Warn("signup failed", "error", err)
		c.notifier.Notify(requestFailed(err))
		return err
	}

	c.logger.Info("signup succeeded", "email", req.Email)
	c.notifier.Notify(accountCreated())
	return nil
}

// Generate fills the draft with values from the generation endpoint.
// On failure the draft is left untouched.
func (c *Coordinator) Generate(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkIdleLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.loading = true
	c.mu.Unlock()

	values, err := c.transport.Generate(ctx)

	c.mu.Lock()
	c.loading = false
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if err == nil {
		c.draft.Name = values.Name
		c.draft.Email = values.Email
		c.draft.Destination = Destination(values.Planet)
		c.draft.Password = values.Password
		c.draft.PasswordRepeat = values.Password
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("generate failed", "error", err)
		c.notifier.Notify(requestFailed(err))
		return err
	}
	return nil
}

// Close detaches the form from its page. A request still in flight settles
// without notifying; further calls return ErrClosed.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Closed reports whether Close has been called.
func (c *Coordinator) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Coordinator) checkIdleLocked() error {
	if c.closed {
		return ErrClosed
	}
	if c.loading {
		return ErrBusy
	}
	return nil
}
