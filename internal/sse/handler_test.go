package sse

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveStream runs the handler against a recorder until cancel fires, then
// returns the body written so far.
func serveStream(t *testing.T, h *Handler, target string) (body func() string, cancel context.CancelFunc, done chan struct{}) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", target, nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done = make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(rec, req)
	}()

	// Only read the body after the handler goroutine has returned.
	body = func() string {
		<-done
		return rec.Body.String()
	}
	return body, cancel, done
}

func waitForSession(t *testing.T, m *Manager, id string) *Session {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if s, ok := m.Get(id); ok {
			return s
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("session %s never appeared", id)
	return nil
}

func TestHandler_StreamLifecycle(t *testing.T) {
	m := NewManager(Config{})
	defer m.CloseAll()
	h := NewHandler(m)

	body, cancel, done := serveStream(t, h, "/sse?connection_id=stream-1")

	s := waitForSession(t, m, "stream-1")
	require.True(t, m.Send("stream-1", Event{Type: "message", Data: map[string]interface{}{"n": 1}}))

	// Give the handler a moment to drain the queue before disconnecting.
	deadline := time.Now().Add(time.Second)
	for len(s.Events()) > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	out := body()
	assert.Contains(t, out, "event: connection")
	assert.Contains(t, out, `"connection_id":"stream-1"`)
	assert.Contains(t, out, `"status":"connected"`)
	assert.Contains(t, out, "event: message")

	// Disconnect removes the session.
	assert.Equal(t, 0, m.Count())
}

func TestHandler_DisconnectClosesSession(t *testing.T) {
	m := NewManager(Config{})
	defer m.CloseAll()
	h := NewHandler(m)

	_, cancel, done := serveStream(t, h, "/sse?connection_id=gone")
	s := waitForSession(t, m, "gone")

	cancel()
	<-done

	assert.True(t, s.Closed())
	_, ok := m.Get("gone")
	assert.False(t, ok)
}

func TestHandler_CapacityReturns503(t *testing.T) {
	m := NewManager(Config{MaxConnections: 1})
	defer m.CloseAll()
	h := NewHandler(m)

	_, cancel, done := serveStream(t, h, "/sse?connection_id=first")
	waitForSession(t, m, "first")
	defer func() {
		cancel()
		<-done
	}()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/sse?connection_id=second", nil))
	assert.Equal(t, 503, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "connection limit exceeded"))
}

func TestHandler_DuplicateIDReturns409(t *testing.T) {
	m := NewManager(Config{})
	defer m.CloseAll()
	h := NewHandler(m)

	_, cancel, done := serveStream(t, h, "/sse?connection_id=dup")
	waitForSession(t, m, "dup")
	defer func() {
		cancel()
		<-done
	}()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/sse?connection_id=dup", nil))
	assert.Equal(t, 409, rec.Code)
}

func TestHandler_RejectsNonGET(t *testing.T) {
	h := NewHandler(NewManager(Config{}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/sse", nil))
	assert.Equal(t, 405, rec.Code)
}
