// Package protocol implements the session-oriented MCP request/response
// state machine: initialize, tool discovery and tool invocation over
// JSON-RPC 2.0 envelopes. The machine is transport-free — it consumes
// decoded messages and produces encoded responses, and is driven by either
// the SSE push channel or the synchronous webhook.
package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"opscheck/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

// CodeNotInitialized is returned for any method (other than initialize and
// ping) that arrives before the initialize handshake.
const CodeNotInitialized = -32002

// Machine is the per-session protocol state machine. A session starts
// uninitialized; after a successful initialize request every method is
// available. Machines share the immutable tool registry but hold no other
// shared state.
type Machine struct {
	registry *ToolRegistry
	info     ServerInfo

	mu          sync.Mutex
	initialized bool
	clientInfo  json.RawMessage
}

// NewMachine creates a protocol state machine bound to the given registry.
func NewMachine(registry *ToolRegistry, info ServerInfo) *Machine {
	return &Machine{
		registry: registry,
		info:     info,
	}
}

// Initialized reports whether the initialize handshake has completed.
func (m *Machine) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// ClientInfo returns the raw clientInfo from the initialize request, nil
// before initialization.
func (m *Machine) ClientInfo() json.RawMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clientInfo
}

// HandleMessage processes one raw JSON-RPC message and returns the encoded
// response, or nil for notifications. It never panics on malformed input;
// parse failures produce a -32700 response with a null id.
func (m *Machine) HandleMessage(ctx context.Context, raw []byte) []byte {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		logging.Warn("Protocol", "Failed to parse message: %v", err)
		return encodeError(json.RawMessage("null"), mcp.PARSE_ERROR, "parse error")
	}

	if req.JSONRPC != JSONRPCVersion {
		return encodeError(req.ID, mcp.INVALID_REQUEST, "invalid JSON-RPC version")
	}

	if req.IsNotification() {
		m.handleNotification(req)
		return nil
	}

	return m.handleRequest(ctx, req)
}

func (m *Machine) handleRequest(ctx context.Context, req Request) []byte {
	logging.Debug("Protocol", "Handling request %s (id: %s)", req.Method, string(req.ID))

	var (
		result interface{}
		err    *Error
	)

	switch req.Method {
	case "initialize":
		result = m.handleInitialize(req.Params)
	case "ping":
		result = map[string]interface{}{
			"status":    "pong",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
	case "tools/list":
		result, err = m.handleToolsList()
	case "tools/call":
		result, err = m.handleToolsCall(ctx, req.Params)
	default:
		err = &Error{Code: mcp.METHOD_NOT_FOUND, Message: fmt.Sprintf("method not found: %s", req.Method)}
	}

	if err != nil {
		return encodeError(req.ID, err.Code, err.Message)
	}
	return encodeResult(req.ID, result)
}

func (m *Machine) handleNotification(req Request) {
	switch req.Method {
	case "notifications/initialized":
		logging.Debug("Protocol", "Client confirmed initialization")
	case "notifications/cancelled":
		logging.Info("Protocol", "Client cancelled an operation")
	default:
		logging.Debug("Protocol", "Ignoring notification: %s", req.Method)
	}
}

func (m *Machine) handleInitialize(params json.RawMessage) InitializeResult {
	var p initializeParams
	// Client info is best-effort; a missing or odd params object still
	// completes the handshake.
	_ = json.Unmarshal(params, &p)

	m.mu.Lock()
	m.initialized = true
	m.clientInfo = p.ClientInfo
	m.mu.Unlock()

	logging.Info("Protocol", "Session initialized (client: %s)", string(p.ClientInfo))

	return InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: Capabilities{
			Tools: map[string]bool{"list": true, "call": true},
		},
		ServerInfo: m.info,
	}
}

func (m *Machine) handleToolsList() (interface{}, *Error) {
	if !m.Initialized() {
		return nil, notInitialized()
	}
	return map[string]interface{}{"tools": m.registry.List()}, nil
}

func (m *Machine) handleToolsCall(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	if !m.Initialized() {
		return nil, notInitialized()
	}

	var p callToolParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &Error{Code: mcp.INVALID_PARAMS, Message: "invalid tools/call params"}
	}
	if p.Name == "" {
		return nil, &Error{Code: mcp.INVALID_PARAMS, Message: "missing required argument \"name\""}
	}

	tool, ok := m.registry.Get(p.Name)
	if !ok {
		return nil, &Error{Code: mcp.INVALID_PARAMS, Message: fmt.Sprintf("tool not found: %s", p.Name)}
	}

	if p.Arguments == nil {
		p.Arguments = map[string]interface{}{}
	}
	if err := validateArguments(tool.Tool.InputSchema, p.Arguments); err != nil {
		return nil, &Error{Code: mcp.INVALID_PARAMS, Message: err.Error()}
	}

	start := time.Now()
	result, err := tool.Handler(ctx, p.Arguments)
	elapsed := time.Since(start)

	if err != nil {
		// Execution failures are data, not protocol errors: the response
		// carries an error-flagged tool result under the original id.
		logging.Error("Protocol", err, "Tool %s failed after %s", p.Name, elapsed.Round(time.Millisecond))
		return mcp.NewToolResultError(fmt.Sprintf("Error executing tool: %v", err)), nil
	}

	logging.Info("Protocol", "Tool %s completed in %s", p.Name, elapsed.Round(time.Millisecond))
	return result, nil
}

func notInitialized() *Error {
	return &Error{Code: CodeNotInitialized, Message: "server not initialized"}
}

func encodeResult(id json.RawMessage, result interface{}) []byte {
	data, err := json.Marshal(Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
	})
	if err != nil {
		logging.Error("Protocol", err, "Failed to encode response")
		return encodeError(id, mcp.INTERNAL_ERROR, "internal error: response encoding failed")
	}
	return data
}

func encodeError(id json.RawMessage, code int, message string) []byte {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	data, _ := json.Marshal(Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &Error{Code: code, Message: message},
	})
	return data
}
