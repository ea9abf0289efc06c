package tools

import "fmt"

// validateArgs checks required fields and primitive types against the
// tool's declared parameter contract. Enum and pattern constraints are
// left to the tools themselves.
func validateArgs(tool Tool, args map[string]any) error {
	for _, field := range tool.Required() {
		if _, ok := args[field]; !ok {
			return &MissingArgumentError{Tool: tool.Name(), Field: field}
		}
	}

	params := tool.Parameters()
	for key, value := range args {
		def, ok := params[key].(map[string]any)
		if !ok {
			continue
		}
		expected, _ := def["type"].(string)
		if expected == "" {
			continue
		}
		if err := checkType(value, expected); err != nil {
			return &ArgumentParseError{Tool: tool.Name(), Err: fmt.Errorf("field %s: %w", key, err)}
		}
	}
	return nil
}

func checkType(value any, expected string) error {
	switch expected {
	case "string":
		if _, ok := value.(string); ok {
			return nil
		}
	case "number", "integer":
		if _, ok := value.(float64); ok {
			return nil
		}
	case "boolean":
		if _, ok := value.(bool); ok {
			return nil
		}
	case "object":
		if _, ok := value.(map[string]any); ok {
			return nil
		}
	case "array":
		if _, ok := value.([]any); ok {
			return nil
		}
	default:
		// Unrecognized schema type: let the tool decide.
		return nil
	}
	return fmt.Errorf("expected %s but got %T", expected, value)
}
