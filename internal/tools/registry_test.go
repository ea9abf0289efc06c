package tools

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTool is a scriptable capability used across the package tests.
type fakeTool struct {
	name     string
	params   map[string]any
	required []string
	call     func(ctx context.Context, args map[string]any) (string, error)
}

func (f *fakeTool) Name() string               { return f.name }
func (f *fakeTool) Description() string        { return "fake " + f.name }
func (f *fakeTool) Parameters() map[string]any { return f.params }
func (f *fakeTool) Required() []string         { return f.required }

func (f *fakeTool) Call(ctx context.Context, args map[string]any) (string, error) {
	if f.call != nil {
		return f.call(ctx, args)
	}
	return fmt.Sprintf("%s-result", f.name), nil
}

func TestResolveCaseInsensitive(t *testing.T) {
	r := NewRegistry([]Tool{&fakeTool{name: "render_chart"}}, nil)

	for _, name := range []string{"render_chart", "Render_Chart", "RENDER_CHART"} {
		tool, ok := r.Resolve(name)
		require.True(t, ok, name)
		assert.Equal(t, "render_chart", tool.Name())
	}

	_, ok := r.Resolve("missing")
	assert.False(t, ok)
}

func TestAllowListFiltersTools(t *testing.T) {
	all := []Tool{
		&fakeTool{name: "current_time"},
		&fakeTool{name: "weather_history"},
		&fakeTool{name: "render_chart"},
	}

	r := NewRegistry(all, []string{"current_time", "RENDER_CHART"})

	assert.Equal(t, []string{"current_time", "render_chart"}, r.Names())
	_, ok := r.Resolve("weather_history")
	assert.False(t, ok)
}

func TestEmptyAllowListKeepsEverything(t *testing.T) {
	all := []Tool{
		&fakeTool{name: "current_time"},
		&fakeTool{name: "weather_history"},
	}

	r := NewRegistry(all, nil)
	assert.Len(t, r.Names(), 2)
}

func TestSpecsWireShape(t *testing.T) {
	r := NewRegistry([]Tool{&fakeTool{
		name:     "weather_history",
		params:   map[string]any{"locations": map[string]any{"type": "string"}},
		required: []string{"locations"},
	}}, nil)

	specs := r.Specs()
	require.Len(t, specs, 1)
	assert.Equal(t, "function", string(specs[0].Type))
	assert.Equal(t, "weather_history", specs[0].Function.Name)

	params, ok := specs[0].Function.Parameters.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "object", params["type"])
	assert.Equal(t, []string{"locations"}, params["required"])
}
