package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rani/internal/composer"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("TEST_GEN_KEY", "secret")

	c, err := NewClient(Config{
		BaseURL:   srv.URL + "/v1",
		APIKeyEnv: "TEST_GEN_KEY",
		Model:     "test-flash",
	})
	require.NoError(t, err)

	return c
}

func TestGenerate(t *testing.T) {
	assert := assert.New(t)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/v1/chat/completions", r.URL.Path)
		assert.Equal("Bearer secret", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			Temperature float32 `json:"temperature"`
			MaxTokens   int     `json:"max_tokens"`
			Stream      bool    `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		assert.Equal("test-flash", req.Model)
		assert.Len(req.Messages, 1)
		assert.Equal("user", req.Messages[0].Role)
		assert.Equal("the prompt", req.Messages[0].Content)
		assert.InDelta(0.9, req.Temperature, 1e-6)
		assert.Equal(4096, req.MaxTokens)
		assert.False(req.Stream)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "test-flash",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Halo!"}, "finish_reason": "stop"}]
		}`))
	})

	answer, err := c.Generate(context.Background(), "the prompt", composer.Options{Temperature: 0.9, MaxOutputTokens: 4096})
	require.NoError(t, err)
	assert.Equal("Halo!", answer)
	assert.Equal("test-flash", c.Model())
}

func TestGenerateZeroTemperatureIsSent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if assert.Contains(t, body, "temperature") {
			assert.InDelta(t, 0, body["temperature"], 1e-6)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "chatcmpl-3", "object": "chat.completion", "choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}}]}`))
	})

	answer, err := c.Generate(context.Background(), "p", composer.Options{Temperature: 0, MaxOutputTokens: 16})
	require.NoError(t, err)
	assert.Equal(t, "ok", answer)
}

func TestGenerateNoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "chatcmpl-2", "object": "chat.completion", "choices": []}`))
	})

	_, err := c.Generate(context.Background(), "p", composer.Options{})
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestGenerateServerErrorFeedsDiagnostic(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": {"message": "model overloaded", "type": "server_error"}}`))
	})

	answer := composer.New(c, composer.Persona{Name: "RANI"}, composer.Options{}, nil).
		Compose(context.Background(), "q", "ctx", nil)

	assert.True(t, strings.HasPrefix(answer, composer.WarningMarker))
	assert.Contains(t, answer, "model overloaded")
	assert.Equal(t, 1, calls)
}

func TestNewClientMissingKey(t *testing.T) {
	t.Setenv("TEST_GEN_KEY_MISSING", "")

	_, err := NewClient(Config{APIKeyEnv: "TEST_GEN_KEY_MISSING"})
	assert.Error(t, err)
}
