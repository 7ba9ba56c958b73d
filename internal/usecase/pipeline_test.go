package usecase

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BlogPublisher/internal/apperr"
	"BlogPublisher/internal/artifact"
	"BlogPublisher/internal/content"
	"BlogPublisher/internal/distribution"
	"BlogPublisher/internal/domain"
	"BlogPublisher/internal/infrastructure/storage"
	"BlogPublisher/internal/logging"
	"BlogPublisher/internal/ports"
)

const baseURL = "https://example.github.io/portfolio/blogs/"

type stubInvoker struct {
	mu      sync.Mutex
	calls   int
	reply   string
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (s *stubInvoker) Invoke(ctx context.Context, _ string) (string, error) {
	s.mu.Lock()
	s.calls++
	block, entered := s.block, s.entered
	reply, err := s.reply, s.err
	s.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return reply, err
}

func (s *stubInvoker) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubSync struct {
	err error
}

func (s *stubSync) Sync(context.Context, ports.SyncRequest) error {
	return s.err
}

type recordingChannel struct {
	mu      sync.Mutex
	teasers []domain.TeaserMessage
}

func (r *recordingChannel) Name() string { return "x" }

func (r *recordingChannel) Announce(_ context.Context, _ domain.Article, teaser domain.TeaserMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teasers = append(r.teasers, teaser)
	return nil
}

type fixture struct {
	pipeline *Pipeline
	invoker  *stubInvoker
	channel  *recordingChannel
	ledger   *storage.MemoryLedger
	root     string
	logs     *syncBuffer
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newFixture(t *testing.T, invoker *stubInvoker, syncErr error, timeout time.Duration) fixture {
	t.Helper()

	logs := &syncBuffer{}
	logger := logging.NewWithWriter(logs, "debug")
	ledger := storage.NewMemoryLedger()

	store, err := artifact.New(artifact.StoreDeps{
		Root:    filepath.Join(t.TempDir(), "blogs"),
		BaseURL: baseURL,
		Sync:    &stubSync{err: syncErr},
		Ledger:  ledger,
		Logger:  logger,
	})
	require.NoError(t, err)

	channel := &recordingChannel{}
	distributor := distribution.NewDistributor(
		[]ports.Announcer{channel},
		distribution.TeaserOptions{MaxLength: 280, ExcerptLimit: 200, Hashtags: "#AI #DataScience #Python"},
		logger,
	)

	p := NewPipeline(PipelineDeps{
		Generator:   content.NewGenerator(invoker, timeout, content.WithLogger(logger)),
		Store:       store,
		Distributor: distributor,
		Ledger:      ledger,
		Topics:      []string{"Vector Databases", "Feature Stores"},
		Prompt:      content.PromptSpec{Name: "test", Text: "Write about {{.Topic}}"},
		Logger:      logger,
		Rand:        rand.New(rand.NewPCG(1, 2)),
	})

	return fixture{pipeline: p, invoker: invoker, channel: channel, ledger: ledger, root: store.Root(), logs: logs}
}

func markdownBody(words int) string {
	var b strings.Builder
	b.WriteString("# Vector Databases\n\n")
	for i := 0; i < words; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString("embedding")
	}
	b.WriteString("\n\n## Indexes\n\nHNSW and IVF.\n")
	return b.String()
}

func TestRunCyclePublishesAndAnnounces(t *testing.T) {
	t.Parallel()

	body := markdownBody(500)
	f := newFixture(t, &stubInvoker{reply: body}, nil, time.Second)

	result, err := f.pipeline.RunCycle(context.Background(), "Vector Databases")
	require.NoError(t, err)

	require.NotNil(t, result.Record)
	assert.Equal(t, domain.Topic("Vector Databases"), result.Topic)
	assert.Equal(t, domain.SyncSucceeded, result.Record.SyncStatus)
	assert.Regexp(t, `^blog-\d{4}-\d{2}-\d{2}-\d{2}-\d{2}-\d{2}\.md$`, result.Record.Filename)
	assert.True(t, result.Announced)
	assert.Equal(t, domain.StateIdle, f.pipeline.State())

	written, err := os.ReadFile(filepath.Join(f.root, result.Record.Filename))
	require.NoError(t, err)
	assert.Equal(t, body, string(written))

	require.Len(t, f.channel.teasers, 1)
	teaser := f.channel.teasers[0]
	assert.LessOrEqual(t, len([]rune(teaser.Text)), 280)
	assert.True(t, strings.HasPrefix(teaser.Text, "embedding embedding"))
	assert.Contains(t, teaser.Text, "...")
	assert.Contains(t, teaser.Text, baseURL+result.Record.Filename)
	assert.Equal(t, result.Record.URL, teaser.Link)
}

func TestRunCycleGenerationTimeoutWritesNothing(t *testing.T) {
	t.Parallel()

	invoker := &stubInvoker{block: make(chan struct{})}
	f := newFixture(t, invoker, nil, 20*time.Millisecond)

	result, err := f.pipeline.RunCycle(context.Background(), "Vector Databases")

	var ge *apperr.GenerationError
	require.ErrorAs(t, err, &ge)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, result.Record)
	assert.Equal(t, domain.StateIdle, f.pipeline.State())

	entries, readErr := os.ReadDir(f.root)
	require.NoError(t, readErr)
	assert.Empty(t, entries)

	recent, _ := f.ledger.Recent(context.Background(), 10)
	assert.Empty(t, recent)
	assert.Empty(t, f.channel.teasers)
}

func TestRunCyclePushFailureAnnouncesWithoutLink(t *testing.T) {
	t.Parallel()

	body := "# Vector Databases\n\nVectors all the way down.\n"
	f := newFixture(t, &stubInvoker{reply: body}, errors.New("authentication failed"), time.Second)

	result, err := f.pipeline.RunCycle(context.Background(), "Vector Databases")
	require.NoError(t, err)

	require.NotNil(t, result.Record)
	assert.Equal(t, domain.SyncFailed, result.Record.SyncStatus)
	assert.False(t, result.Record.Complete())
	assert.FileExists(t, filepath.Join(f.root, result.Record.Filename))

	require.Len(t, f.channel.teasers, 1)
	teaser := f.channel.teasers[0]
	assert.Empty(t, teaser.Link)
	assert.NotContains(t, teaser.Text, "https://")
	assert.True(t, strings.HasPrefix(teaser.Text, "Vectors all the way down."))

	assert.Contains(t, f.logs.String(), "remote sync")
	assert.Contains(t, f.logs.String(), "authentication failed")

	saved, ok, _ := f.ledger.Get(context.Background(), result.Record.Filename)
	require.True(t, ok)
	assert.Equal(t, domain.SyncFailed, saved.SyncStatus)
}

func TestRunCyclePicksConfiguredTopic(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubInvoker{reply: "# T\n\nbody"}, nil, time.Second)

	result, err := f.pipeline.RunCycle(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, []domain.Topic{"Vector Databases", "Feature Stores"}, result.Topic)
}

func TestCyclesAreSerialized(t *testing.T) {
	t.Parallel()

	invoker := &stubInvoker{
		reply:   "# T\n\nbody",
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	f := newFixture(t, invoker, nil, 5*time.Second)

	done := make(chan error, 1)
	go func() {
		_, err := f.pipeline.RunCycle(context.Background(), "Vector Databases")
		done <- err
	}()

	<-invoker.entered
	assert.Equal(t, domain.StateGenerating, f.pipeline.State())

	_, err := f.pipeline.TryRunCycle(context.Background())
	assert.ErrorIs(t, err, apperr.ErrCycleInFlight)

	waitCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.pipeline.RunCycle(waitCtx, "Feature Stores")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(invoker.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, invoker.Calls())

	_, err = f.pipeline.TryRunCycle(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, invoker.Calls())
}

func TestResync(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubInvoker{reply: "# T\n\nbody"}, nil, time.Second)

	_, err := f.pipeline.Resync(context.Background(), "blog-missing.md")
	assert.ErrorIs(t, err, apperr.ErrArtifactNotFound)

	result, err := f.pipeline.RunCycle(context.Background(), "Vector Databases")
	require.NoError(t, err)

	record, err := f.pipeline.Resync(context.Background(), result.Record.Filename)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncSucceeded, record.SyncStatus)

	recent, err := f.pipeline.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
