package sse

import (
	"errors"
	"net/http"
	"time"

	"opscheck/pkg/logging"
)

// Handler serves the SSE stream endpoint. Each request opens one session,
// announces it with a connection event, then drains the session queue to
// the wire until the client disconnects.
type Handler struct {
	manager *Manager
}

// NewHandler creates the SSE stream handler.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	session, err := h.manager.Open(r.URL.Query().Get("connection_id"))
	if err != nil {
		var capErr *CapacityExceededError
		if errors.As(err, &capErr) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	defer h.manager.Close(session.ID())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, flusher, Event{
		Type: "connection",
		Data: map[string]interface{}{
			"connection_id": session.ID(),
			"status":        "connected",
			"timestamp":     time.Now().UTC().Format(time.RFC3339),
		},
	}); err != nil {
		return
	}

	logging.Info("SSE", "Client connected: %s", logging.TruncateSessionID(session.ID()))

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			logging.Info("SSE", "Client disconnected: %s", logging.TruncateSessionID(session.ID()))
			return
		case <-session.Done():
			return
		case ev := <-session.Events():
			if err := writeEvent(w, flusher, ev); err != nil {
				logging.Warn("SSE", "Write failed for connection %s: %v",
					logging.TruncateSessionID(session.ID()), err)
				return
			}
		}
	}
}

// writeEvent encodes one event to the wire and flushes so the client sees
// it immediately.
func writeEvent(w http.ResponseWriter, flusher http.Flusher, ev Event) error {
	data, err := ev.Encode()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
