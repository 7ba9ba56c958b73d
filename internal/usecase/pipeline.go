package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"BlogPublisher/internal/apperr"
	"BlogPublisher/internal/content"
	"BlogPublisher/internal/domain"
	"BlogPublisher/internal/logging"
	"BlogPublisher/internal/ports"
)

// ArticleGenerator produces an article for a topic.
type ArticleGenerator interface {
	Generate(ctx context.Context, topic domain.Topic, spec content.PromptSpec) (domain.Article, error)
}

// ArtifactStore persists articles and retries failed pushes.
type ArtifactStore interface {
	Persist(ctx context.Context, article domain.Article) (domain.ArtifactRecord, error)
	Resync(ctx context.Context, record domain.ArtifactRecord) (domain.ArtifactRecord, error)
}

// TeaserDistributor announces an article; it reports but never returns failures.
type TeaserDistributor interface {
	Announce(ctx context.Context, article domain.Article, artifactURL string) bool
}

// PipelineDeps wires all driven adapters into the publish pipeline.
type PipelineDeps struct {
	Generator   ArticleGenerator
	Store       ArtifactStore
	Distributor TeaserDistributor
	Ledger      ports.ArtifactLedger
	Topics      []string
	Prompt      content.PromptSpec
	Logger      *slog.Logger
	Rand        *rand.Rand
}

// Pipeline runs generate, persist, distribute cycles one at a time.
type Pipeline struct {
	generator   ArticleGenerator
	store       ArtifactStore
	distributor TeaserDistributor
	ledger      ports.ArtifactLedger
	topics      []domain.Topic
	prompt      content.PromptSpec
	logger      *slog.Logger
	rand        *rand.Rand
	now         func() time.Time

	slot  chan struct{}
	state atomic.Value
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	topics := make([]domain.Topic, 0, len(deps.Topics))
	for _, t := range deps.Topics {
		if t != "" {
			topics = append(topics, domain.Topic(t))
		}
	}

	p := &Pipeline{
		generator:   deps.Generator,
		store:       deps.Store,
		distributor: deps.Distributor,
		ledger:      deps.Ledger,
		topics:      topics,
		prompt:      deps.Prompt,
		logger:      logger,
		rand:        deps.Rand,
		now:         time.Now,
		slot:        make(chan struct{}, 1),
	}
	p.state.Store(domain.StateIdle)
	return p
}

// State reports the milestone of the cycle currently in flight.
func (p *Pipeline) State() domain.CycleState {
	return p.state.Load().(domain.CycleState)
}

// RunCycle waits for any in-flight cycle to finish and then runs one with
// topic, or a random topic when topic is empty. ctx bounds the wait.
func (p *Pipeline) RunCycle(ctx context.Context, topic domain.Topic) (domain.CycleResult, error) {
	select {
	case p.slot <- struct{}{}:
	case <-ctx.Done():
		return domain.CycleResult{}, ctx.Err()
	}
	defer func() { <-p.slot }()

	return p.run(ctx, topic)
}

// TryRunCycle runs a cycle with a random topic unless one is already in
// flight, in which case it returns apperr.ErrCycleInFlight immediately.
func (p *Pipeline) TryRunCycle(ctx context.Context) (domain.CycleResult, error) {
	select {
	case p.slot <- struct{}{}:
	default:
		return domain.CycleResult{}, apperr.ErrCycleInFlight
	}
	defer func() { <-p.slot }()

	return p.run(ctx, "")
}

// Resync retries the push of a previously persisted artifact.
func (p *Pipeline) Resync(ctx context.Context, filename string) (domain.ArtifactRecord, error) {
	if p.ledger == nil {
		return domain.ArtifactRecord{}, apperr.ErrArtifactNotFound
	}
	record, ok, err := p.ledger.Get(ctx, filename)
	if err != nil {
		return domain.ArtifactRecord{}, fmt.Errorf("load artifact %s: %w", filename, err)
	}
	if !ok {
		return domain.ArtifactRecord{}, fmt.Errorf("%w: %s", apperr.ErrArtifactNotFound, filename)
	}

	select {
	case p.slot <- struct{}{}:
	case <-ctx.Done():
		return record, ctx.Err()
	}
	defer func() { <-p.slot }()

	return p.store.Resync(ctx, record)
}

// Recent lists the latest ledger entries.
func (p *Pipeline) Recent(ctx context.Context, limit int) ([]domain.ArtifactRecord, error) {
	if p.ledger == nil {
		return nil, nil
	}
	return p.ledger.Recent(ctx, limit)
}

// PickTopic chooses uniformly from the configured topics.
func (p *Pipeline) PickTopic() domain.Topic {
	if len(p.topics) == 0 {
		return ""
	}
	if p.rand != nil {
		return p.topics[p.rand.IntN(len(p.topics))]
	}
	return p.topics[rand.IntN(len(p.topics))]
}

func (p *Pipeline) run(ctx context.Context, topic domain.Topic) (domain.CycleResult, error) {
	defer p.state.Store(domain.StateIdle)

	result := domain.CycleResult{RunID: uuid.New(), StartedAt: p.now().UTC()}
	logger := p.logger.With("run_id", result.RunID.String())

	p.state.Store(domain.StateGenerating)
	if topic == "" {
		topic = p.PickTopic()
	}
	if topic == "" {
		return result, apperr.NewGeneration("topic", errors.New("no topics configured"))
	}
	result.Topic = topic
	logger.Info("cycle started", "topic", topic)

	article, err := p.generator.Generate(ctx, topic, p.prompt)
	if err != nil {
		logger.Error("cycle aborted", "stage", domain.StateGenerating, "error", err)
		return result, err
	}
	result.Article = article

	p.state.Store(domain.StatePersisting)
	record, err := p.store.Persist(ctx, article)
	var rse *apperr.RemoteSyncError
	switch {
	case err == nil:
	case errors.As(err, &rse):
		logger.Error("artifact kept locally, announcing without link", "file", record.Filename, "error", err)
	default:
		logger.Error("cycle aborted", "stage", domain.StatePersisting, "error", err)
		return result, err
	}
	result.Record = &record

	p.state.Store(domain.StateDistributing)
	link := ""
	if record.Complete() {
		link = record.URL
	}
	if p.distributor != nil {
		result.Announced = p.distributor.Announce(ctx, article, link)
	}

	result.FinishedAt = p.now().UTC()
	logger.Info("cycle finished",
		"topic", topic,
		"file", record.Filename,
		"sync", record.SyncStatus,
		"announced", result.Announced,
		"duration", result.FinishedAt.Sub(result.StartedAt),
	)
	return result, nil
}
