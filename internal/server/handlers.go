package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"opscheck/internal/protocol"
	"opscheck/internal/sse"
	"opscheck/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

// maxMessageBytes caps inbound message and webhook bodies.
const maxMessageBytes = 1 << 20

// minWebhookIDLength rejects obviously bogus webhook ids.
const minWebhookIDLength = 3

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Server", err, "Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, format string, args ...interface{}) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}

// handleMessage accepts one protocol message for an open SSE session. The
// message is processed asynchronously in HTTP terms: the response travels
// back over the session's push channel as a message event.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	connectionID := r.URL.Query().Get("connection_id")
	if connectionID == "" {
		writeError(w, http.StatusBadRequest, "connection_id query parameter is required")
		return
	}

	session, ok := s.manager.Get(connectionID)
	if !ok {
		writeError(w, http.StatusNotFound, "no open connection with id %s", connectionID)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		// Tell the streaming client its submission was lost, not just the
		// POSTer.
		session.Send(sse.Event{Type: "error", Data: map[string]string{
			"error": "message body could not be read",
		}})
		writeError(w, http.StatusBadRequest, "reading request body: %v", err)
		return
	}

	response := s.machineFor(session).HandleMessage(r.Context(), body)
	if response != nil {
		session.Send(sse.Event{Type: "message", Data: json.RawMessage(response)})
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// webhookRequest is the n8n-style synchronous invocation body.
type webhookRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

// webhookResponse mirrors the shape n8n workflows consume.
type webhookResponse struct {
	Success         bool        `json:"success"`
	Data            interface{} `json:"data,omitempty"`
	Error           string      `json:"error,omitempty"`
	Tool            string      `json:"tool"`
	ExecutionTimeMS float64     `json:"execution_time_ms"`
	Timestamp       string      `json:"timestamp"`
}

// handleWebhook runs one tool synchronously and returns the result in the
// response body, bypassing the protocol handshake.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	webhookID := r.PathValue("id")
	if len(webhookID) < minWebhookIDLength {
		writeError(w, http.StatusBadRequest, "webhook id must be at least %d characters", minWebhookIDLength)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading request body: %v", err)
		return
	}

	var req webhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "parsing request body: %v", err)
		return
	}
	if req.Tool == "" {
		writeError(w, http.StatusBadRequest, "missing tool name")
		return
	}

	tool, ok := s.registry.Get(req.Tool)
	if !ok {
		writeError(w, http.StatusBadRequest, "tool not found: %s", req.Tool)
		return
	}

	if req.Params == nil {
		req.Params = map[string]interface{}{}
	}

	logging.Info("Server", "Webhook %s invoking tool %s", webhookID, req.Tool)

	start := time.Now()
	result, err := tool.Handler(r.Context(), req.Params)
	elapsed := time.Since(start)

	resp := webhookResponse{
		Tool:            req.Tool,
		ExecutionTimeMS: float64(elapsed.Microseconds()) / 1000.0,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}
	switch {
	case err != nil:
		resp.Error = err.Error()
	case result.IsError:
		resp.Error = flattenContent(result)
	default:
		resp.Success = true
		resp.Data = webhookData(result)
	}

	s.metrics.ObserveToolExecution(req.Tool, resp.Success)
	writeJSON(w, http.StatusOK, resp)
}

// webhookData extracts a tool result for the webhook body. Text content
// that is itself JSON is embedded as an object rather than a quoted string.
func webhookData(result *mcp.CallToolResult) interface{} {
	text := flattenContent(result)
	if json.Valid([]byte(text)) {
		return json.RawMessage(text)
	}
	return text
}

func flattenContent(result *mcp.CallToolResult) string {
	var out string
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			out += text.Text
		}
	}
	return out
}

// handleRoot describes the server and its endpoints for humans poking at
// the base URL.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":        s.info.Name,
		"version":     s.info.Version,
		"description": "MCP tool server for ABC system checks over SSE",
		"endpoints": map[string]string{
			"sse":         "/sse",
			"message":     "/message",
			"webhook":     "/webhook/{id}",
			"tools":       "/tools",
			"connections": "/connections",
			"health":      "/healthz",
			"ready":       "/readyz",
			"metrics":     "/metrics",
			"info":        "/info",
		},
	})
}

// handleInfo returns the detailed server state: identity, live connections
// and registered tools in one document.
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"server": map[string]interface{}{
			"name":             s.info.Name,
			"version":          s.info.Version,
			"protocol_version": protocol.ProtocolVersion,
		},
		"connections": map[string]interface{}{
			"active":  s.manager.Count(),
			"details": s.manager.Snapshot(),
		},
		"tools": s.registry.List(),
	})
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	tools := s.registry.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tools": tools,
		"count": len(tools),
	})
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active":      s.manager.Count(),
		"connections": s.manager.Snapshot(),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": s.info.Name,
		"version": s.info.Version,
	})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"ready": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
}
