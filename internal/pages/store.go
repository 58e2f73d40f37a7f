// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package pages keeps the state of every open signup page.
//
// Each rendered page owns one signup.Coordinator and is addressed by a
// signed token embedded in the page. Pages that stay idle longer than the
// TTL without a connected event stream are closed by a janitor.
package pages

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"codeberg.org/oliverandrich/space-signup/internal/signup"
	"codeberg.org/oliverandrich/space-signup/internal/sse"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/microcosm-cc/bluemonday"
)

// TokenName is the form field and codec name of the page token.
const TokenName = "page"

const (
	// DefaultTTL is used when Options.TTL is zero.
	DefaultTTL = 30 * time.Minute
	// Tokens older than this are rejected even when the page is still known.
	tokenMaxAge = 24 * time.Hour
)

// ErrPageNotFound is returned for unknown, expired or forged page tokens.
var ErrPageNotFound = errors.New("page not found")

var textPolicy = bluemonday.StrictPolicy()

// Options configures a Store.
type Options struct {
	Transport   signup.Transport
	Hub         *sse.Hub
	RenderToast ToastRenderer
	Logger      *slog.Logger
	// HashKey and BlockKey are hex encoded. An empty HashKey uses a random key,
	// so tokens do not survive a restart. An empty BlockKey disables encryption.
	HashKey  string
	BlockKey string
	TTL      time.Duration
	// SweepInterval defaults to a quarter of the TTL.
	SweepInterval time.Duration
}

// Store is the registry of open pages.
type Store struct {
	transport signup.Transport
	hub       *sse.Hub
	render    ToastRenderer
	logger    *slog.Logger
	codec     *securecookie.SecureCookie
	ttl       time.Duration
	now       func() time.Time

	mu    sync.Mutex
	pages map[string]*Page

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewStore creates a store and starts its janitor. Call Close to stop it.
func NewStore(opts Options) (*Store, error) {
	if opts.Transport == nil {
		return nil, errors.New("pages: transport is required")
	}
	if opts.Hub == nil {
		return nil, errors.New("pages: hub is required")
	}
	if opts.RenderToast == nil {
		return nil, errors.New("pages: toast renderer is required")
	}

	codec, err := newCodec(opts.HashKey, opts.BlockKey)
	if err != nil {
		return nil, err
	}

	s := &Store{
		transport: opts.Transport,
		hub:       opts.Hub,
		render:    opts.RenderToast,
		logger:    opts.Logger,
		codec:     codec,
		ttl:       opts.TTL,
		now:       time.Now,
		pages:     make(map[string]*Page),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}

	interval := opts.SweepInterval
	if interval <= 0 {
		interval = s.ttl / 4
	}
	go s.janitor(interval)

	return s, nil
}

func newCodec(hashHex, blockHex string) (*securecookie.SecureCookie, error) {
	hashKey := securecookie.GenerateRandomKey(32)
	if hashHex != "" {
		key, err := hex.DecodeString(hashHex)
		if err != nil {
			return nil, fmt.Errorf("decoding page hash key: %w", err)
		}
		hashKey = key
	}

	var blockKey []byte
	if blockHex != "" {
		key, err := hex.DecodeString(blockHex)
		if err != nil {
			return nil, fmt.Errorf("decoding page block key: %w", err)
		}
		blockKey = key
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(tokenMaxAge.Seconds()))
	// Invalid key sizes only surface on first use.
	_, err := codec.Encode(TokenName, "check")
	if err != nil {
		return nil, fmt.Errorf("page token codec: %w", err)
	}
	return codec, nil
}

// Open registers a new page with an empty form.
func (s *Store) Open() (*Page, error) {
	id := uuid.NewString()
	token, err := s.codec.Encode(TokenName, id)
	if err != nil {
		return nil, fmt.Errorf("encoding page token: %w", err)
	}

	p := &Page{
		ID:     id,
		Token:  token,
		hub:    s.hub,
		render: s.render,
	}
	p.coordinator = signup.New(s.transport, p, p, s.logger.With("page_id", id))
	p.touch(s.now())

	s.mu.Lock()
	s.pages[id] = p
	s.mu.Unlock()

	return p, nil
}

// Lookup returns the page addressed by token and records activity on it.
func (s *Store) Lookup(token string) (*Page, error) {
	if token == "" {
		return nil, ErrPageNotFound
	}
	var id string
	if err := s.codec.Decode(TokenName, token, &id); err != nil {
		return nil, ErrPageNotFound
	}
	return s.Get(id)
}

// Get returns the page with id and records activity on it.
func (s *Store) Get(id string) (*Page, error) {
	s.mu.Lock()
	p, ok := s.pages[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrPageNotFound
	}
	p.touch(s.now())
	return p, nil
}

// Remove closes the page with id. Unknown ids are ignored.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	p, ok := s.pages[id]
	delete(s.pages, id)
	s.mu.Unlock()

	if ok {
		s.closePage(p)
	}
}

func (s *Store) closePage(p *Page) {
	p.coordinator.Close()
	s.hub.Drop(p.ID)
}

// Len returns the number of open pages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

// Sweep closes pages idle for longer than the TTL that have no connected
// stream, and returns how many were closed.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	var expired []*Page
	s.mu.Lock()
	for id, p := range s.pages {
		if p.LastSeen().Before(cutoff) && !s.hub.Connected(id) {
			expired = append(expired, p)
			delete(s.pages, id)
		}
	}
	s.mu.Unlock()

	for _, p := range expired {
		s.closePage(p)
	}
	if len(expired) > 0 {
		s.logger.Debug("pages expired", "count", len(expired))
	}
	return len(expired)
}

func (s *Store) janitor(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Close stops the janitor and closes all pages. It is safe to call twice.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done

		s.mu.Lock()
		pages := s.pages
		s.pages = make(map[string]*Page)
		s.mu.Unlock()

		for _, p := range pages {
			s.closePage(p)
		}
	})
}
