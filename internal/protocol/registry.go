package protocol

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ToolHandler executes a tool call. A returned error is an execution
// failure and is surfaced to the caller as an error-flagged tool result,
// not as a protocol error.
type ToolHandler func(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error)

// RegisteredTool pairs a tool descriptor with its handler.
type RegisteredTool struct {
	Tool    mcp.Tool
	Handler ToolHandler
}

// ToolRegistry is the immutable name→tool table shared by every session.
// It is fully populated at construction and read-only afterwards, so
// concurrent reads need no locking.
type ToolRegistry struct {
	order []string
	tools map[string]RegisteredTool
}

// NewToolRegistry builds a registry from the given tools. Duplicate names
// and nil handlers are construction errors.
func NewToolRegistry(tools ...RegisteredTool) (*ToolRegistry, error) {
	r := &ToolRegistry{
		tools: make(map[string]RegisteredTool, len(tools)),
	}
	for _, t := range tools {
		if t.Tool.Name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if t.Handler == nil {
			return nil, fmt.Errorf("tool %s has no handler", t.Tool.Name)
		}
		if _, exists := r.tools[t.Tool.Name]; exists {
			return nil, fmt.Errorf("duplicate tool name: %s", t.Tool.Name)
		}
		r.tools[t.Tool.Name] = t
		r.order = append(r.order, t.Tool.Name)
	}
	return r, nil
}

// Get returns the registered tool with the given name.
func (r *ToolRegistry) Get(name string) (RegisteredTool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns the tool descriptors in registration order.
func (r *ToolRegistry) List() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Tool)
	}
	return out
}

// Len returns the number of registered tools.
func (r *ToolRegistry) Len() int {
	return len(r.tools)
}
