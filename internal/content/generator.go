package content

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"BlogPublisher/internal/apperr"
	"BlogPublisher/internal/domain"
	"BlogPublisher/internal/logging"
	"BlogPublisher/internal/ports"
)

// Generator renders a prompt, invokes the provider and parses the answer.
// It never retries; the caller decides.
type Generator struct {
	invoker ports.TextInvoker
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// GeneratorOption customizes a Generator.
type GeneratorOption func(*Generator)

// WithClock overrides the creation-time source.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// WithLogger attaches a logger.
func WithLogger(l *slog.Logger) GeneratorOption {
	return func(g *Generator) { g.logger = l }
}

// NewGenerator wires a provider; timeout bounds each Invoke call.
func NewGenerator(invoker ports.TextInvoker, timeout time.Duration, opts ...GeneratorOption) *Generator {
	g := &Generator{
		invoker: invoker,
		timeout: timeout,
		now:     time.Now,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces an Article for topic. Every failure is a *apperr.GenerationError.
func (g *Generator) Generate(ctx context.Context, topic domain.Topic, spec PromptSpec) (domain.Article, error) {
	if g.invoker == nil {
		return domain.Article{}, apperr.NewGeneration("invoke", fmt.Errorf("no provider configured"))
	}

	prompt, err := Render(spec, PromptVars{Topic: string(topic)})
	if err != nil {
		return domain.Article{}, apperr.NewGeneration("render", err)
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	started := time.Now()
	raw, err := g.invoker.Invoke(callCtx, prompt)
	if err != nil {
		return domain.Article{}, apperr.NewGeneration("invoke", err)
	}
	g.logger.Debug("provider answered", "topic", topic, "chars", len(raw), "latency", time.Since(started))

	article, err := Parse(topic, raw, g.now().UTC())
	if err != nil {
		return domain.Article{}, apperr.NewGeneration("parse", err)
	}

	return article, nil
}
