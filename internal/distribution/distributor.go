package distribution

import (
	"context"
	"log/slog"

	"BlogPublisher/internal/apperr"
	"BlogPublisher/internal/domain"
	"BlogPublisher/internal/logging"
	"BlogPublisher/internal/ports"
)

// Distributor posts teasers to every configured channel. Failures are
// logged and reported as false; they never propagate.
type Distributor struct {
	channels []ports.Announcer
	opts     TeaserOptions
	logger   *slog.Logger
}

// NewDistributor wires channels and teaser bounds.
func NewDistributor(channels []ports.Announcer, opts TeaserOptions, logger *slog.Logger) *Distributor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Distributor{channels: channels, opts: opts, logger: logger}
}

// Teaser builds the message Announce would send.
func (d *Distributor) Teaser(article domain.Article, artifactURL string) domain.TeaserMessage {
	return BuildTeaser(article, artifactURL, d.opts)
}

// Announce returns true only when at least one channel exists and all of them accepted the teaser.
func (d *Distributor) Announce(ctx context.Context, article domain.Article, artifactURL string) bool {
	if len(d.channels) == 0 {
		d.logger.Warn("no distribution channels configured", "topic", article.Topic)
		return false
	}

	teaser := d.Teaser(article, artifactURL)
	ok := true
	for _, channel := range d.channels {
		if err := channel.Announce(ctx, article, teaser); err != nil {
			ok = false
			d.logger.Error("announcement failed",
				"error", apperr.NewDistribution(channel.Name(), err),
				"topic", article.Topic,
			)
			continue
		}
		d.logger.Info("announcement posted", "channel", channel.Name(), "topic", article.Topic, "with_link", teaser.Link != "")
	}
	return ok
}
