package tools

import "fmt"

// ArgumentParseError indicates the tool-call arguments were not a JSON
// object.
type ArgumentParseError struct {
	Tool string
	Err  error
}

func (e *ArgumentParseError) Error() string {
	return fmt.Sprintf("tool %s: cannot parse arguments: %v", e.Tool, e.Err)
}

func (e *ArgumentParseError) Unwrap() error { return e.Err }

// MissingArgumentError indicates a required field declared by the
// tool's schema was absent.
type MissingArgumentError struct {
	Tool  string
	Field string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("tool %s: missing required argument %q", e.Tool, e.Field)
}

// UnsupportedToolError indicates the model requested a name not
// present in the registry. Fatal to the turn: continuing without the
// expected result would desynchronize the conversation.
type UnsupportedToolError struct {
	Name string
}

func (e *UnsupportedToolError) Error() string {
	return fmt.Sprintf("unsupported tool %q", e.Name)
}
