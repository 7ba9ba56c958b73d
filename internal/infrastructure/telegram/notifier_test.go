package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BlogPublisher/internal/domain"
)

func TestNotifierAnnounce(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.PostForm.Get("chat_id"))
		assert.Equal(t, "teaser https://example.org/a.md", r.PostForm.Get("text"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewNotifier("TOKEN", "42", WithAPIBase(server.URL+"/"))
	err := n.Announce(context.Background(), domain.Article{}, domain.TeaserMessage{Text: "teaser https://example.org/a.md"})
	require.NoError(t, err)
}

func TestNotifierErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	err := NewNotifier("TOKEN", "42", WithAPIBase(server.URL)).Announce(context.Background(), domain.Article{}, domain.TeaserMessage{Text: "x"})
	assert.ErrorContains(t, err, "400")

	err = NewNotifier("", "42").Announce(context.Background(), domain.Article{}, domain.TeaserMessage{Text: "x"})
	assert.ErrorContains(t, err, "misconfigured")
}
