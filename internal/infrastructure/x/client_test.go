package x

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BlogPublisher/internal/config"
	"BlogPublisher/internal/domain"
)

func TestClientPostOAuth1(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "OAuth "))
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "hello", payload["text"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1850","text":"hello"}}`))
	}))
	defer server.Close()

	client, err := NewClient(config.XConfig{
		Endpoint:          server.URL,
		APIKey:            "k",
		APISecret:         "s",
		AccessToken:       "t",
		AccessTokenSecret: "ts",
	})
	require.NoError(t, err)

	id, err := client.Post(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "1850", id)
}

func TestClientErrorTaxonomy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   error
	}{
		{status: http.StatusForbidden, want: ErrForbidden},
		{status: http.StatusNotFound, want: ErrNotFound},
		{status: http.StatusUnauthorized, want: ErrNotFound},
		{status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
			w.WriteHeader(tt.status)
		}))

		client, err := NewClient(config.XConfig{Endpoint: server.URL, BearerToken: "user-token"})
		require.NoError(t, err)

		err = client.Announce(context.Background(), domain.Article{}, domain.TeaserMessage{Text: "x"})
		require.Error(t, err)
		if tt.want != nil {
			assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
		} else {
			assert.NotErrorIs(t, err, ErrForbidden)
			assert.NotErrorIs(t, err, ErrNotFound)
		}
		server.Close()
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := NewClient(config.XConfig{Endpoint: "http://localhost"})
	assert.Error(t, err)
}
