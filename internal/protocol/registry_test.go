package protocol

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("ok"), nil
}

func TestNewToolRegistry(t *testing.T) {
	t.Run("preserves registration order", func(t *testing.T) {
		registry, err := NewToolRegistry(
			RegisteredTool{Tool: mcp.Tool{Name: "b"}, Handler: noopHandler},
			RegisteredTool{Tool: mcp.Tool{Name: "a"}, Handler: noopHandler},
		)
		require.NoError(t, err)

		list := registry.List()
		require.Len(t, list, 2)
		assert.Equal(t, "b", list[0].Name)
		assert.Equal(t, "a", list[1].Name)
		assert.Equal(t, 2, registry.Len())
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		_, err := NewToolRegistry(
			RegisteredTool{Tool: mcp.Tool{Name: "x"}, Handler: noopHandler},
			RegisteredTool{Tool: mcp.Tool{Name: "x"}, Handler: noopHandler},
		)
		assert.Error(t, err)
	})

	t.Run("rejects nil handler", func(t *testing.T) {
		_, err := NewToolRegistry(RegisteredTool{Tool: mcp.Tool{Name: "x"}})
		assert.Error(t, err)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewToolRegistry(RegisteredTool{Handler: noopHandler})
		assert.Error(t, err)
	})
}

func TestValidateArguments(t *testing.T) {
	schema := mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"query":   map[string]interface{}{"type": "string"},
			"limit":   map[string]interface{}{"type": "integer"},
			"ratio":   map[string]interface{}{"type": "number"},
			"dry":     map[string]interface{}{"type": "boolean"},
			"filters": map[string]interface{}{"type": "object"},
			"tags":    map[string]interface{}{"type": "array"},
		},
		Required: []string{"query"},
	}

	t.Run("valid arguments pass", func(t *testing.T) {
		err := validateArguments(schema, map[string]interface{}{
			"query":   "hi",
			"limit":   float64(10), // JSON numbers decode to float64
			"ratio":   0.5,
			"dry":     true,
			"filters": map[string]interface{}{"a": 1},
			"tags":    []interface{}{"x"},
		})
		assert.NoError(t, err)
	})

	t.Run("missing required fails", func(t *testing.T) {
		err := validateArguments(schema, map[string]interface{}{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `missing required argument "query"`)
	})

	t.Run("non-integral integer fails", func(t *testing.T) {
		err := validateArguments(schema, map[string]interface{}{
			"query": "hi",
			"limit": 1.5,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `argument "limit"`)
	})

	t.Run("wrong object type fails", func(t *testing.T) {
		err := validateArguments(schema, map[string]interface{}{
			"query":   "hi",
			"filters": "not-an-object",
		})
		assert.Error(t, err)
	})

	t.Run("undeclared properties are ignored", func(t *testing.T) {
		err := validateArguments(schema, map[string]interface{}{
			"query": "hi",
			"extra": 123,
		})
		assert.NoError(t, err)
	})

	t.Run("null values are ignored", func(t *testing.T) {
		err := validateArguments(schema, map[string]interface{}{
			"query": "hi",
			"limit": nil,
		})
		assert.NoError(t, err)
	})
}
