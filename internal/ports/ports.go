package ports

import (
	"context"
	"time"

	"BlogPublisher/internal/domain"
)

// TextInvoker sends a rendered prompt to an LLM provider and returns raw text.
type TextInvoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// SyncRequest describes one file to publish to the remote store.
type SyncRequest struct {
	Dir           string
	File          string
	CommitMessage string
}

// RemoteArtifactSync durably publishes a local file change to a remote store.
type RemoteArtifactSync interface {
	Sync(ctx context.Context, req SyncRequest) error
}

// ArtifactLedger keeps the history of persisted artifacts and their push status.
type ArtifactLedger interface {
	Save(ctx context.Context, record domain.ArtifactRecord) error
	Get(ctx context.Context, filename string) (domain.ArtifactRecord, bool, error)
	Recent(ctx context.Context, limit int) ([]domain.ArtifactRecord, error)
}

// Announcer posts a teaser to a single distribution channel.
type Announcer interface {
	Name() string
	Announce(ctx context.Context, article domain.Article, teaser domain.TeaserMessage) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
