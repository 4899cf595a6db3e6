package intelligence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func geminiServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), "unexpected path %s", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGemini(t *testing.T, baseURL string) *GeminiProvider {
	t.Helper()
	p, err := NewGeminiProvider(context.Background(), GeminiConfig{
		APIKey:    "test-key",
		BaseURL:   baseURL + "/",
		Model:     "gemini-test",
		MaxTokens: 150,
		MaxTags:   4,
	}, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestGeminiRequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), GeminiConfig{Model: "gemini-test"}, zap.NewNop())
	assert.Error(t, err)
}

func TestGeminiGenerate(t *testing.T) {
	srv := geminiServer(t, `{"candidates": [{"content": {"role": "model", "parts": [{"text": "Clear skies, "}, {"text": "explorer!"}]}}]}`)

	text, err := newTestGemini(t, srv.URL).Generate(context.Background(), "Saw a comet")
	require.NoError(t, err)
	assert.Equal(t, "Clear skies, explorer!", text)
}

func TestGeminiSummarizeAndTag(t *testing.T) {
	srv := geminiServer(t, `{"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"summary\": \"A comet sighting.\", \"tags\": [\"#Comet\"]}"}]}}]}`)

	e, err := newTestGemini(t, srv.URL).SummarizeAndTag(context.Background(), "Saw a comet")
	require.NoError(t, err)
	assert.Equal(t, "A comet sighting.", e.Summary)
	assert.Equal(t, []string{"#Comet"}, e.Tags)
}

func TestGeminiNoCandidates(t *testing.T) {
	srv := geminiServer(t, `{"candidates": []}`)

	_, err := newTestGemini(t, srv.URL).Generate(context.Background(), "Saw a comet")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
