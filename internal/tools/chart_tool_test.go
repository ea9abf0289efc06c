package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calyptra/fnchat/internal/resource"
)

func TestRenderChartStoresImageAndReturnsLocator(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chart", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("fake-png"))
	}))
	defer srv.Close()

	store, err := resource.NewStore(t.TempDir())
	require.NoError(t, err)

	tool := NewRenderChartTool(store)
	tool.BaseURL = srv.URL

	out, err := tool.Call(context.Background(), map[string]any{
		"type": "bar",
		"data": map[string]any{
			"labels":   []any{"a", "b"},
			"datasets": []any{map[string]any{"data": []any{1.0, 2.0}}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "png", captured["format"])
	chartCfg := captured["chart"].(map[string]any)
	assert.Equal(t, "bar", chartCfg["type"])

	var result map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	id, ok := resource.ParseLocator(result["image_url"])
	require.True(t, ok)

	data, contentType, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png"), data)
	assert.Equal(t, "image/png", contentType)
}

func TestRenderChartServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad chart config", http.StatusBadRequest)
	}))
	defer srv.Close()

	store, err := resource.NewStore(t.TempDir())
	require.NoError(t, err)

	tool := NewRenderChartTool(store)
	tool.BaseURL = srv.URL

	_, err = tool.Call(context.Background(), map[string]any{
		"type": "bar",
		"data": map[string]any{},
	})
	assert.Error(t, err)
}
