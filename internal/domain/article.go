package domain

import (
	"time"

	"github.com/google/uuid"
)

// Topic selects the subject matter of a single cycle.
type Topic string

// Article is generated text produced by the content generator.
type Article struct {
	Topic     Topic
	Body      string
	CreatedAt time.Time
}

// SyncStatus tracks the remote push outcome of a persisted artifact.
type SyncStatus string

const (
	SyncPending   SyncStatus = "pending"
	SyncSucceeded SyncStatus = "succeeded"
	SyncFailed    SyncStatus = "failed"
)

// ArtifactRecord is the persisted form of an Article.
type ArtifactRecord struct {
	Filename   string     `json:"filename"`
	Path       string     `json:"path"`
	Topic      Topic      `json:"topic"`
	CreatedAt  time.Time  `json:"createdAt"`
	SyncStatus SyncStatus `json:"syncStatus"`
	SyncError  string     `json:"syncError,omitempty"`
	URL        string     `json:"url,omitempty"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Complete reports whether both the local write and the remote push succeeded.
func (r ArtifactRecord) Complete() bool {
	return r.SyncStatus == SyncSucceeded
}

// TeaserMessage is the short announcement derived from an Article.
type TeaserMessage struct {
	Text string
	Link string
}

// CycleState enumerates pipeline milestones.
type CycleState string

const (
	StateIdle         CycleState = "idle"
	StateGenerating   CycleState = "generating"
	StatePersisting   CycleState = "persisting"
	StateDistributing CycleState = "distributing"
)

// CycleResult summarizes one generate, persist, distribute run.
type CycleResult struct {
	RunID      uuid.UUID
	Topic      Topic
	Article    Article
	Record     *ArtifactRecord
	Announced  bool
	StartedAt  time.Time
	FinishedAt time.Time
}
