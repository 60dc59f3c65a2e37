package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ai-chatbot-be/internal/bootstrap"
	"ai-chatbot-be/internal/config"
	"ai-chatbot-be/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, provider string) *Server {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		App: config.AppConfig{
			Port:               "0",
			Environment:        "test",
			LogFilePath:        filepath.Join(dir, "app.log"),
			AuditLogFilePath:   filepath.Join(dir, "turns.log"),
			CorsAllowedOrigins: "http://localhost:3000",
		},
		Auth: config.AuthConfig{JWTSecret: "server-test-secret", TokenTTL: time.Hour},
		Ai: config.AIConfig{
			Provider:      provider,
			Model:         "gpt-3.5-turbo",
			SystemPrompt:  config.DefaultSystemPrompt,
			Temperature:   0.7,
			MaxTokens:     1000,
			Timeout:       time.Second,
			OpenAIBaseURL: "http://127.0.0.1:1",
		},
	}

	container := bootstrap.NewContainer(testutil.NewTestDB(t), cfg)
	t.Cleanup(container.Close)
	return New(cfg, container)
}

func get(t *testing.T, s *Server, path string) (int, map[string]interface{}) {
	t.Helper()

	resp, err := s.GetApp().Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "openai")

	status, body := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
}

func TestBannerReportsProvider(t *testing.T) {
	s := newTestServer(t, "openai")

	status, body := get(t, s, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "openai", body["provider"])
	assert.Equal(t, "gpt-3.5-turbo", body["model"])
}

func TestUnknownProviderStillServes(t *testing.T) {
	s := newTestServer(t, "llama")

	status, body := get(t, s, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "unconfigured", body["provider"])

	status, _ = get(t, s, "/health")
	assert.Equal(t, http.StatusOK, status)
}

func TestApiRoutesAreMounted(t *testing.T) {
	s := newTestServer(t, "openai")

	status, body := get(t, s, "/api/conversations")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"nobody@example.com","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.GetApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
