package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehcaw/codegraph/internal/config"
)

// Test Plan:
// - Empty or whitespace input short-circuits with ErrEmptyText
// - A missing API key fails without touching the network
// - Successful responses return the embedding values
// - Request carries model, task type and the API key header
// - Non-200 and empty-vector responses are errors

func newTestGemini(t *testing.T, handler http.Handler) *Gemini {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g := NewGemini(config.Default().Embedding)
	g.baseURL = server.URL
	return g
}

func TestEmbed_EmptyText(t *testing.T) {
	g := NewGemini(config.Default().Embedding)

	_, err := g.Embed(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = g.Embed(context.Background(), "   \n\t")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestEmbed_MissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	g := NewGemini(config.Default().Embedding)
	_, err := g.Embed(context.Background(), "some text")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestEmbed_Success(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	var gotPath, gotKey string
	var gotPayload map[string]any
	g := newTestGemini(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embedding": map[string]any{"values": []float64{0.1, 0.2, 0.3}},
		})
	}))

	vec, err := g.Embed(context.Background(), "def f(): pass")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)

	assert.Equal(t, "/models/gemini-embedding-001:embedContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "models/gemini-embedding-001", gotPayload["model"])
	assert.Equal(t, "SEMANTIC_SIMILARITY", gotPayload["task_type"])
}

func TestEmbed_APIError(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	g := newTestGemini(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
	}))

	_, err := g.Embed(context.Background(), "def f(): pass")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestEmbed_EmptyVector(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	g := newTestGemini(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": map[string]any{"values": []float64{}}})
	}))

	_, err := g.Embed(context.Background(), "def f(): pass")
	assert.Error(t, err)
}
