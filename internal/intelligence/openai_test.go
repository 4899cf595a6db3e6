package intelligence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chatServer(t *testing.T, content string, seen *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:     "chatcmpl-1",
			Object: "chat.completion",
			Model:  "gpt-test",
			Choices: []openai.ChatCompletionChoice{{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestOpenAI(baseURL string) *OpenAIProvider {
	return NewOpenAIProvider(OpenAIConfig{
		APIKey:      "test-key",
		BaseURL:     baseURL,
		Model:       "gpt-test",
		MaxTokens:   150,
		Temperature: 0.7,
		MaxTags:     4,
	}, zap.NewNop())
}

func TestOpenAIGenerate(t *testing.T) {
	var req openai.ChatCompletionRequest
	srv := chatServer(t, "  Clear skies, explorer!  ", &req)

	text, err := newTestOpenAI(srv.URL).Generate(context.Background(), "Saw a comet")
	require.NoError(t, err)
	assert.Equal(t, "Clear skies, explorer!", text)

	assert.Equal(t, "gpt-test", req.Model)
	assert.Equal(t, 150, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, PersonaPrompt, req.Messages[0].Content)
	assert.Equal(t, "Saw a comet", req.Messages[1].Content)
}

func TestOpenAISummarizeAndTag(t *testing.T) {
	var req openai.ChatCompletionRequest
	srv := chatServer(t, `{"summary": "A comet sighting.", "tags": ["#Comet", "#NightSky"]}`, &req)

	e, err := newTestOpenAI(srv.URL).SummarizeAndTag(context.Background(), "Saw a comet")
	require.NoError(t, err)
	assert.Equal(t, "A comet sighting.", e.Summary)
	assert.Equal(t, []string{"#Comet", "#NightSky"}, e.Tags)

	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)
	assert.Contains(t, req.Messages[1].Content, `Analyze this forum post: "Saw a comet"`)
}

func TestOpenAIEmptyAndBrokenResponses(t *testing.T) {
	empty := chatServer(t, "   ", nil)
	_, err := newTestOpenAI(empty.URL).Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	broken := chatServer(t, "definitely not json", nil)
	_, err = newTestOpenAI(broken.URL).SummarizeAndTag(context.Background(), "hi")
	assert.Error(t, err)
}

func TestOpenAIServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer srv.Close()

	_, err := newTestOpenAI(srv.URL).Generate(context.Background(), "hi")
	assert.Error(t, err)
}
