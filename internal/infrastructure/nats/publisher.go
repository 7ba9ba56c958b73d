package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gosimple/slug"
	"github.com/nats-io/nats.go"

	"BlogPublisher/internal/domain"
	"BlogPublisher/internal/logging"
	"BlogPublisher/internal/ports"
)

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
}

// ArtifactEvent is the payload published for every announced article.
type ArtifactEvent struct {
	Topic       string    `json:"topic"`
	Slug        string    `json:"slug"`
	Teaser      string    `json:"teaser"`
	Link        string    `json:"link,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	PublishedAt time.Time `json:"published_at"`
}

// Publisher announces articles as events on a NATS subject.
type Publisher struct {
	conn    Conn
	subject string
	now     func() time.Time
	logger  *slog.Logger
}

var _ ports.Announcer = (*Publisher)(nil)

// Connect dials the server with unlimited reconnects.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("blog-publisher"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}

func NewPublisher(conn Conn, subject string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Publisher{
		conn:    conn,
		subject: subject,
		now:     time.Now,
		logger:  logger,
	}
}

// Name identifies the channel inside the registry.
func (p *Publisher) Name() string {
	return "nats"
}

// Announce publishes an ArtifactEvent for the article.
func (p *Publisher) Announce(ctx context.Context, article domain.Article, teaser domain.TeaserMessage) error {
	event := ArtifactEvent{
		Topic:       string(article.Topic),
		Slug:        slug.Make(string(article.Topic)),
		Teaser:      teaser.Text,
		Link:        teaser.Link,
		CreatedAt:   article.CreatedAt.UTC(),
		PublishedAt: p.now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact event: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish artifact event: %w", err)
	}

	p.logger.DebugContext(ctx, "artifact event sent", "subject", p.subject, "topic", event.Topic)
	return nil
}
