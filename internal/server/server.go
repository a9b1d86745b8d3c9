// Package server exposes the HTTP surface: the SSE push channel, the
// message and webhook entry points, introspection endpoints and Prometheus
// exposition.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"opscheck/internal/config"
	"opscheck/internal/protocol"
	"opscheck/internal/sse"
	"opscheck/pkg/logging"
)

// Server is the HTTP front end. Each SSE connection gets its own protocol
// state machine; the tool registry and connection manager are shared.
type Server struct {
	cfg      config.ServerConfig
	registry *protocol.ToolRegistry
	manager  *sse.Manager
	metrics  *Metrics
	info     protocol.ServerInfo

	mu       sync.Mutex
	machines map[string]*protocol.Machine

	httpServer *http.Server
	ready      atomic.Bool
}

// New wires the HTTP server. Call Start to begin serving.
func New(cfg config.ServerConfig, registry *protocol.ToolRegistry, manager *sse.Manager, info protocol.ServerInfo) *Server {
	s := &Server{
		cfg:      cfg,
		registry: registry,
		manager:  manager,
		metrics:  NewMetrics(manager),
		info:     info,
		machines: make(map[string]*protocol.Machine),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	route := func(pattern, path string, h http.Handler) {
		mux.Handle(pattern, s.metrics.instrument(path, h))
	}

	route("GET /{$}", "/", http.HandlerFunc(s.handleRoot))
	route("GET /info", "/info", http.HandlerFunc(s.handleInfo))
	route("GET /sse", "/sse", sse.NewHandler(s.manager))
	route("POST /message", "/message", http.HandlerFunc(s.handleMessage))
	route("POST /webhook/{id}", "/webhook", http.HandlerFunc(s.handleWebhook))
	route("GET /tools", "/tools", http.HandlerFunc(s.handleTools))
	route("GET /connections", "/connections", http.HandlerFunc(s.handleConnections))
	route("GET /healthz", "/healthz", http.HandlerFunc(s.handleHealthz))
	route("GET /readyz", "/readyz", http.HandlerFunc(s.handleReadyz))
	mux.Handle("GET /metrics", s.metrics.Handler())

	return mux
}

// Start begins listening. It returns once the listener is bound; serving
// continues in the background until Shutdown.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}

	s.ready.Store(true)
	logging.Info("Server", "Listening on %s", s.cfg.Addr())

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server", err, "HTTP server stopped unexpectedly")
		}
	}()
	return nil
}

// Shutdown drains in-flight requests and closes every SSE connection.
func (s *Server) Shutdown(ctx context.Context) error {
	s.ready.Store(false)
	err := s.httpServer.Shutdown(ctx)
	s.manager.CloseAll()
	logging.Info("Server", "Shutdown complete")
	return err
}

// machineFor returns the protocol machine for a connection, creating it on
// first use. The machine is discarded when the connection closes.
func (s *Server) machineFor(session *sse.Session) *protocol.Machine {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.machines[session.ID()]
	if !ok {
		m = protocol.NewMachine(s.registry, s.info)
		s.machines[session.ID()] = m
		go func() {
			<-session.Done()
			s.mu.Lock()
			delete(s.machines, session.ID())
			s.mu.Unlock()
		}()
	}
	return m
}
