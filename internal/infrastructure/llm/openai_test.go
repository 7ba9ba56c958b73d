package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BlogPublisher/internal/config"
)

func TestOpenAIClientInvoke(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama-3.1-8b-instant", req.Model)
		assert.Equal(t, 0.8, req.Temperature)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "# Topic", req.Messages[0].Content)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"# Topic\n\nBody"}}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(config.GeneratorConfig{
		Endpoint:    server.URL,
		APIKey:      "secret",
		Temperature: 0.8,
		Timeout:     time.Second,
	})

	out, err := client.Invoke(context.Background(), "# Topic")
	require.NoError(t, err)
	assert.Equal(t, "# Topic\n\nBody", out)
}

func TestOpenAIClientErrors(t *testing.T) {
	t.Parallel()

	rateLimited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer rateLimited.Close()

	noChoices := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer noChoices.Close()

	for name, url := range map[string]string{"rate limit": rateLimited.URL, "no choices": noChoices.URL} {
		client := NewOpenAIClient(config.GeneratorConfig{Endpoint: url, APIKey: "k", Timeout: time.Second})
		_, err := client.Invoke(context.Background(), "p")
		assert.Error(t, err, name)
	}

	_, err := NewOpenAIClient(config.GeneratorConfig{}).Invoke(context.Background(), "p")
	assert.Error(t, err)
}
