package sse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_OpenGeneratesID(t *testing.T) {
	m := NewManager(Config{})
	defer m.CloseAll()

	s, err := m.Open("")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, 1, m.Count())
}

func TestManager_DuplicateIDRejected(t *testing.T) {
	m := NewManager(Config{})
	defer m.CloseAll()

	_, err := m.Open("conn-1")
	require.NoError(t, err)

	_, err = m.Open("conn-1")
	require.Error(t, err)
	var dup *DuplicateConnectionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "conn-1", dup.ID)
}

func TestManager_CapacityEnforced(t *testing.T) {
	m := NewManager(Config{MaxConnections: 2})
	defer m.CloseAll()

	_, err := m.Open("a")
	require.NoError(t, err)
	_, err = m.Open("b")
	require.NoError(t, err)

	_, err = m.Open("c")
	require.Error(t, err)
	var capErr *CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 2, capErr.Limit)
	assert.Equal(t, 2, capErr.Current)

	// Closing a session frees a slot.
	m.Close("a")
	_, err = m.Open("c")
	assert.NoError(t, err)
	assert.Equal(t, 2, m.Count())
}

func TestManager_CapacityCycling(t *testing.T) {
	m := NewManager(Config{MaxConnections: 1})
	defer m.CloseAll()

	for i := 0; i < 10; i++ {
		s, err := m.Open("")
		require.NoError(t, err, "cycle %d", i)
		m.Close(s.ID())
	}
	assert.Equal(t, 0, m.Count())
}

func TestSession_SendNonBlocking(t *testing.T) {
	m := NewManager(Config{QueueSize: 2})
	defer m.CloseAll()

	s, err := m.Open("conn")
	require.NoError(t, err)

	assert.True(t, s.Send(Event{Type: "message", Data: 1}))
	assert.True(t, s.Send(Event{Type: "message", Data: 2}))

	// Queue full, send returns immediately without blocking.
	assert.False(t, s.Send(Event{Type: "message", Data: 3}))
	assert.Equal(t, int64(2), s.MessagesSent())

	// Draining one slot makes room again.
	<-s.Events()
	assert.True(t, s.Send(Event{Type: "message", Data: 4}))
}

func TestSession_SendAfterCloseIsNoOp(t *testing.T) {
	m := NewManager(Config{})

	s, err := m.Open("conn")
	require.NoError(t, err)
	m.Close("conn")

	assert.True(t, s.Closed())
	assert.False(t, s.Send(Event{Type: "message", Data: "late"}))
	assert.False(t, m.Send("conn", Event{Type: "message", Data: "late"}))
}

func TestManager_CloseIdempotent(t *testing.T) {
	m := NewManager(Config{})

	_, err := m.Open("conn")
	require.NoError(t, err)

	m.Close("conn")
	m.Close("conn")
	m.Close("never-existed")
	assert.Equal(t, 0, m.Count())
}

func TestManager_HeartbeatIndependence(t *testing.T) {
	m := NewManager(Config{HeartbeatInterval: 10 * time.Millisecond})
	defer m.CloseAll()

	a, err := m.Open("a")
	require.NoError(t, err)
	b, err := m.Open("b")
	require.NoError(t, err)

	// Closing one session must not stop the other's heartbeat.
	m.Close(a.ID())

	select {
	case ev := <-b.Events():
		assert.Equal(t, "heartbeat", ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected a heartbeat on the surviving session")
	}
}

func TestManager_Snapshot(t *testing.T) {
	m := NewManager(Config{})
	defer m.CloseAll()

	s, err := m.Open("conn")
	require.NoError(t, err)
	s.Send(Event{Type: "message", Data: "x"})

	snap := m.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "conn", snap[0].ID)
	assert.Equal(t, int64(1), snap[0].MessagesSent)
	assert.False(t, snap[0].CreatedAt.IsZero())
}

func TestEvent_Encode(t *testing.T) {
	ev := Event{Type: "message", Data: map[string]interface{}{"k": "v"}}
	data, err := ev.Encode()
	require.NoError(t, err)
	assert.Equal(t, "event: message\ndata: {\"k\":\"v\"}\n\n", string(data))
}
