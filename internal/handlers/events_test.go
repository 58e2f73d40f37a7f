// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"codeberg.org/oliverandrich/space-signup/internal/sse"
	"codeberg.org/oliverandrich/space-signup/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvents_StreamsUntilDisconnect(t *testing.T) {
	env := newEnv(t)
	env.h.SetHeartbeat(10 * time.Millisecond)
	p := env.openPage(t)

	c, rec := testutil.NewEchoContext(env.e, http.MethodGet, "/events?page="+p.Token, nil)
	ctx, cancel := context.WithCancel(context.Background())
	c.SetRequest(c.Request().WithContext(ctx))

	done := make(chan error, 1)
	go func() { done <- env.h.Events(c) }()

	require.Eventually(t, func() bool { return env.hub.Connected(p.ID) }, time.Second, time.Millisecond)
	require.Equal(t, 1, env.hub.Send(p.ID, sse.FormatEvent("toast", "<div>hi</div>")))
	time.Sleep(30 * time.Millisecond)
	cancel()

	require.NoError(t, <-done)
	assert.False(t, env.hub.Connected(p.ID))
	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, "event: connected\ndata: ok\n\n")
	assert.Contains(t, body, "event: toast\ndata: <div>hi</div>\n\n")
	assert.Contains(t, body, sse.Heartbeat)
}

func TestEvents_EndsWhenPageCloses(t *testing.T) {
	env := newEnv(t)
	p := env.openPage(t)
	c, _ := testutil.NewEchoContext(env.e, http.MethodGet, "/events?page="+p.Token, nil)

	done := make(chan error, 1)
	go func() { done <- env.h.Events(c) }()
	require.Eventually(t, func() bool { return env.hub.Connected(p.ID) }, time.Second, time.Millisecond)

	env.store.Remove(p.ID)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stream did not end after the page closed")
	}
}

func TestEvents_UnknownPage(t *testing.T) {
	env := newEnv(t)
	c, _ := testutil.NewEchoContext(env.e, http.MethodGet, "/events?page=nope", nil)

	assert.Equal(t, http.StatusNotFound, httpCode(t, env.h.Events(c)))
}
