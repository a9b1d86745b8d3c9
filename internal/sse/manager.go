// Package sse manages server-sent-event push channels. Each connected
// client holds one Session with a buffered outbound event queue and a
// heartbeat goroutine; the Manager enforces a global connection cap and
// owns session lifecycle.
package sse

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"opscheck/pkg/logging"

	"github.com/google/uuid"
)

const (
	// DefaultMaxConnections caps concurrent SSE sessions.
	DefaultMaxConnections = 100

	// DefaultHeartbeatInterval is how often each session emits a
	// heartbeat event to keep intermediaries from closing the stream.
	DefaultHeartbeatInterval = 30 * time.Second

	// DefaultQueueSize is the per-session outbound event buffer. When the
	// buffer is full further sends to that session are dropped; other
	// sessions are unaffected.
	DefaultQueueSize = 64
)

// Event is one server-sent event. Data is JSON-encoded on the wire.
type Event struct {
	Type string
	Data interface{}
}

// Encode renders the event in SSE wire format.
func (e Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("encoding %s event: %w", e.Type, err)
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", e.Type, data)), nil
}

// CapacityExceededError is returned when opening a session would exceed
// the connection cap.
type CapacityExceededError struct {
	Limit   int
	Current int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("connection limit exceeded: %d/%d connections", e.Current, e.Limit)
}

// DuplicateConnectionError is returned when a connection id is already in
// use by a live session.
type DuplicateConnectionError struct {
	ID string
}

func (e *DuplicateConnectionError) Error() string {
	return fmt.Sprintf("connection id already in use: %s", e.ID)
}

// Session is one client's push channel. Events are delivered through a
// buffered queue drained by the transport; sends never block and never
// reach a closed session.
type Session struct {
	id        string
	createdAt time.Time

	events chan Event
	done   chan struct{}
	once   sync.Once

	mu           sync.Mutex
	lastActivity time.Time

	sent    atomic.Int64
	dropped atomic.Int64
}

// ID returns the connection id.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was opened.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Events is the outbound queue drained by the SSE transport.
func (s *Session) Events() <-chan Event { return s.events }

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} { return s.done }

// MessagesSent returns the number of events queued for delivery.
func (s *Session) MessagesSent() int64 { return s.sent.Load() }

// LastActivity returns the time of the last queued event.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Send queues an event without blocking. It returns false when the
// session is closed or its queue is full; a full queue degrades only this
// session.
func (s *Session) Send(ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.events <- ev:
		s.sent.Add(1)
		s.mu.Lock()
		s.lastActivity = time.Now()
		s.mu.Unlock()
		return true
	default:
		if n := s.dropped.Add(1); n == 1 || n%100 == 0 {
			logging.Warn("SSE", "Event queue full for connection %s, dropped %d events",
				logging.TruncateSessionID(s.id), n)
		}
		return false
	}
}

func (s *Session) close() {
	s.once.Do(func() {
		close(s.done)
	})
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Config tunes the connection manager. Zero values take the defaults.
type Config struct {
	MaxConnections    int
	HeartbeatInterval time.Duration
	QueueSize         int
}

// Manager owns all live SSE sessions. It enforces the connection cap,
// rejects duplicate ids and runs one heartbeat goroutine per session.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	maxConnections    int
	heartbeatInterval time.Duration
	queueSize         int
}

// NewManager creates a connection manager.
func NewManager(cfg Config) *Manager {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = DefaultMaxConnections
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	return &Manager{
		sessions:          make(map[string]*Session),
		maxConnections:    cfg.MaxConnections,
		heartbeatInterval: cfg.HeartbeatInterval,
		queueSize:         cfg.QueueSize,
	}
}

// Open registers a new session. An empty id gets a generated UUID. It
// fails with CapacityExceededError at the connection cap and with
// DuplicateConnectionError when the id is already live.
func (m *Manager) Open(id string) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.maxConnections {
		logging.Warn("SSE", "Connection limit reached (%d), rejecting connection %s",
			m.maxConnections, logging.TruncateSessionID(id))
		return nil, &CapacityExceededError{Limit: m.maxConnections, Current: len(m.sessions)}
	}
	if _, exists := m.sessions[id]; exists {
		return nil, &DuplicateConnectionError{ID: id}
	}

	now := time.Now()
	s := &Session{
		id:           id,
		createdAt:    now,
		lastActivity: now,
		events:       make(chan Event, m.queueSize),
		done:         make(chan struct{}),
	}
	m.sessions[id] = s

	go m.heartbeatLoop(s)

	logging.Debug("SSE", "Opened connection %s (total: %d)",
		logging.TruncateSessionID(id), len(m.sessions))
	return s, nil
}

// Get returns the live session with the given id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Send queues an event for one connection. Unknown or closed connections
// are a no-op returning false.
func (m *Manager) Send(id string, ev Event) bool {
	s, ok := m.Get(id)
	if !ok {
		return false
	}
	return s.Send(ev)
}

// Close removes a session and stops its heartbeat. Closing an unknown or
// already closed id is a no-op.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	remaining := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return
	}
	s.close()
	logging.Debug("SSE", "Closed connection %s (total: %d)",
		logging.TruncateSessionID(id), remaining)
}

// CloseAll shuts down every session, used on server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
	if len(sessions) > 0 {
		logging.Info("SSE", "Closed %d connections", len(sessions))
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SessionInfo is a point-in-time view of one connection for introspection.
type SessionInfo struct {
	ID           string    `json:"connection_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	MessagesSent int64     `json:"messages_sent"`
}

// Snapshot returns introspection data for every live session.
func (m *Manager) Snapshot() []SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, SessionInfo{
			ID:           s.id,
			CreatedAt:    s.createdAt,
			LastActivity: s.LastActivity(),
			MessagesSent: s.MessagesSent(),
		})
	}
	return out
}

// heartbeatLoop emits heartbeat events until the session closes. Each
// session has its own ticker so a stalled or closed session never affects
// the others.
func (m *Manager) heartbeatLoop(s *Session) {
	ticker := time.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.Send(Event{
				Type: "heartbeat",
				Data: map[string]interface{}{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				},
			})
		}
	}
}
