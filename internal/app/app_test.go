package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BlogPublisher/internal/apperr"
	"BlogPublisher/internal/config"
	"BlogPublisher/internal/domain"
	"BlogPublisher/internal/logging"
)

func testConfig(t *testing.T, endpoint string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Root = filepath.Join(t.TempDir(), "blogs")
	cfg.Generator.Endpoint = endpoint
	cfg.Generator.APIKey = "test-key"
	cfg.Scheduler.Disabled = true
	return cfg
}

func TestNewRejectsUnwritableRoot(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	cfg := testConfig(t, "http://localhost")
	cfg.Storage.Root = filepath.Join(file, "blogs")

	_, err := New(context.Background(), cfg, logging.Discard())
	var swe *apperr.StorageWriteError
	assert.ErrorAs(t, err, &swe)
}

func TestRunOnceKeepsArtifactWhenPushFails(t *testing.T) {
	t.Parallel()

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"# Feature Stores\n\nOffline and online stores."}}]}`))
	}))
	defer provider.Close()

	cfg := testConfig(t, provider.URL)
	application, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer application.Close()

	result, err := application.RunOnce(context.Background(), "Feature Stores")
	require.NoError(t, err)

	require.NotNil(t, result.Record)
	assert.Equal(t, domain.Topic("Feature Stores"), result.Topic)
	assert.Equal(t, domain.SyncFailed, result.Record.SyncStatus)
	assert.False(t, result.Announced, "no channels are configured")

	written, err := os.ReadFile(result.Record.Path)
	require.NoError(t, err)
	assert.Equal(t, "# Feature Stores\n\nOffline and online stores.", string(written))
}
