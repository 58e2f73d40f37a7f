// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package sse fans server-sent events out to the streams of an open page.
package sse

import (
	"sync"

	"github.com/samber/lo"
)

// streamBuffer is the number of events a slow stream may lag behind.
const streamBuffer = 16

// Hub tracks the event streams connected per page.
// A page may have several streams when it reconnects.
type Hub struct {
	streams map[string][]chan string
	mu      sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{streams: make(map[string][]chan string)}
}

// Register adds a stream for pageID and returns the channel to read events from.
// The channel is closed by Unregister or Drop.
func (h *Hub) Register(pageID string) <-chan string {
	ch := make(chan string, streamBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.streams[pageID] = append(h.streams[pageID], ch)
	return ch
}

// Unregister removes one stream of pageID. Unknown streams are ignored.
func (h *Hub) Unregister(pageID string, stream <-chan string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	streams := h.streams[pageID]
	ch, idx, ok := lo.FindIndexOf(streams, func(c chan string) bool { return c == stream })
	if !ok {
		return
	}
	close(ch)

	rest := lo.DropByIndex(streams, idx)
	if len(rest) == 0 {
		delete(h.streams, pageID)
		return
	}
	h.streams[pageID] = rest
}

// Drop closes every stream of pageID.
func (h *Hub) Drop(pageID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.streams[pageID] {
		close(ch)
	}
	delete(h.streams, pageID)
}

// Send queues message on all streams of pageID and reports how many took it.
// Full streams are skipped.
func (h *Hub) Send(pageID, message string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return lo.CountBy(h.streams[pageID], func(ch chan string) bool {
		select {
		case ch <- message:
			return true
		default:
			return false
		}
	})
}

// Connected reports whether pageID has at least one stream.
func (h *Hub) Connected(pageID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.streams[pageID]) > 0
}

// StreamCount returns the total number of connected streams.
func (h *Hub) StreamCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return lo.SumBy(lo.Values(h.streams), func(streams []chan string) int {
		return len(streams)
	})
}

// PageCount returns the number of pages with at least one stream.
func (h *Hub) PageCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.streams)
}
