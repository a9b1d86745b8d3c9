package protocol

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// validateArguments checks args against a tool's input schema: every
// required property must be present, and every supplied property with a
// declared primitive type must match it. The first structural mismatch is
// reported; deeper (nested object) validation is left to the handler.
func validateArguments(schema mcp.ToolInputSchema, args map[string]interface{}) error {
	for _, required := range schema.Required {
		if _, ok := args[required]; !ok {
			return fmt.Errorf("missing required argument %q", required)
		}
	}

	for name, value := range args {
		propSchema, ok := schema.Properties[name].(map[string]interface{})
		if !ok {
			continue // undeclared or untyped property, let the handler decide
		}
		declaredType, ok := propSchema["type"].(string)
		if !ok {
			continue
		}
		if err := checkType(name, declaredType, value); err != nil {
			return err
		}
	}
	return nil
}

func checkType(name, declaredType string, value interface{}) error {
	if value == nil {
		return nil
	}
	switch declaredType {
	case "string":
		if _, ok := value.(string); !ok {
			return typeMismatch(name, declaredType, value)
		}
	case "number":
		if _, ok := value.(float64); !ok {
			return typeMismatch(name, declaredType, value)
		}
	case "integer":
		f, ok := value.(float64)
		if !ok || f != float64(int64(f)) {
			return typeMismatch(name, declaredType, value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return typeMismatch(name, declaredType, value)
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			return typeMismatch(name, declaredType, value)
		}
	case "array":
		if _, ok := value.([]interface{}); !ok {
			return typeMismatch(name, declaredType, value)
		}
	}
	return nil
}

func typeMismatch(name, declaredType string, value interface{}) error {
	return fmt.Errorf("argument %q: expected %s, got %T", name, declaredType, value)
}
