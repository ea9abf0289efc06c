// Package tools exposes the capabilities the model can invoke by name
// and the invoker that executes model-issued tool calls.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Tool is one invocable capability. Parameters and Required describe
// the JSON-Schema parameter contract advertised to the model and used
// to validate arguments before invocation. Call always yields a string
// payload ready for inclusion in conversation history; binary tools
// store their bytes and return a resource-locator JSON object.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Required() []string
	Call(ctx context.Context, args map[string]any) (string, error)
}

// Registry is the fixed, named set of capabilities. Composition is
// decided at construction; there is no mutable state afterwards.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry builds a registry from the given tools, keeping only
// those named in allow. An empty allow list keeps everything.
func NewRegistry(all []Tool, allow []string) *Registry {
	allowed := make(map[string]bool, len(allow))
	for _, name := range allow {
		allowed[strings.ToLower(name)] = true
	}

	r := &Registry{tools: make(map[string]Tool)}
	for _, tool := range all {
		key := strings.ToLower(tool.Name())
		if len(allowed) > 0 && !allowed[key] {
			continue
		}
		if _, dup := r.tools[key]; dup {
			continue
		}
		r.tools[key] = tool
		r.order = append(r.order, key)
	}
	return r
}

// Resolve looks a tool up by name. Lookup is case-insensitive to
// tolerate model output variance.
func (r *Registry) Resolve(name string) (Tool, bool) {
	tool, ok := r.tools[strings.ToLower(name)]
	return tool, ok
}

// Names lists the enabled tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.order))
	for _, key := range r.order {
		names = append(names, r.tools[key].Name())
	}
	return names
}

// Specs returns the enabled tools in the wire shape advertised to the
// model.
func (r *Registry) Specs() []openai.Tool {
	specs := make([]openai.Tool, 0, len(r.order))
	for _, key := range r.order {
		tool := r.tools[key]
		specs = append(specs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters: map[string]any{
					"type":       "object",
					"properties": tool.Parameters(),
					"required":   tool.Required(),
				},
			},
		})
	}
	return specs
}

func (r *Registry) String() string {
	return fmt.Sprintf("Registry(%s)", strings.Join(r.Names(), ", "))
}
