package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(baseURL, apiKey string) *Provider {
	return NewProvider(llm.Settings{
		Model:        "gemini-pro",
		SystemPrompt: "be helpful",
		Temperature:  0.7,
		MaxTokens:    1000,
		Timeout:      2 * time.Second,
		BaseURL:      baseURL,
		APIKey:       apiKey,
	}, logger.NewNopLogger())
}

var turns = []llm.Message{
	{Role: llm.RoleUser, Content: "Hello"},
	{Role: llm.RoleAssistant, Content: "Hi there"},
	{Role: llm.RoleUser, Content: "What is a p-value?"},
}

func TestGenerateReshapesTurns(t *testing.T) {
	var got generateRequest
	var key, path string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get("x-goog-api-key")
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"A p-value is..."},{"text":"second part"}]}}]}`))
	}))
	defer server.Close()

	reply, err := newTestProvider(server.URL, "g-test").Generate(context.Background(), turns)
	require.NoError(t, err)

	assert.Equal(t, "A p-value is...", reply)
	assert.Equal(t, "g-test", key)
	assert.Equal(t, "/v1beta/models/gemini-pro:generateContent", path)

	require.Len(t, got.Contents, 3)
	assert.Equal(t, []string{"user", "model", "user"}, []string{got.Contents[0].Role, got.Contents[1].Role, got.Contents[2].Role})
	assert.Equal(t, "What is a p-value?", got.Contents[2].Parts[0].Text)
	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "be helpful", got.SystemInstruction.Parts[0].Text)
	assert.InDelta(t, 0.7, got.GenerationConfig.Temperature, 0.0001)
	assert.Equal(t, 1000, got.GenerationConfig.MaxOutputTokens)
}

func TestGenerateWithoutKeyMakesNoCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL, " ").Generate(context.Background(), turns)

	assert.True(t, errors.Is(err, apperror.ErrConfiguration))
	assert.False(t, called)
}

func TestGenerateUpstreamFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "api error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
			},
		},
		{
			name: "no candidates",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"candidates":[]}`))
			},
		},
		{
			name: "candidate without parts",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[]}}]}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := newTestProvider(server.URL, "g-test").Generate(context.Background(), turns)
			assert.True(t, errors.Is(err, apperror.ErrUpstream), "got %v", err)
		})
	}
}

func TestGenerateUnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	_, err := newTestProvider(baseURL, "g-test").Generate(context.Background(), turns)
	assert.True(t, errors.Is(err, apperror.ErrUpstream))
}
