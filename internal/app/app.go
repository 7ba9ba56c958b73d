package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"BlogPublisher/internal/artifact"
	"BlogPublisher/internal/config"
	"BlogPublisher/internal/content"
	"BlogPublisher/internal/distribution"
	"BlogPublisher/internal/domain"
	"BlogPublisher/internal/infrastructure/git"
	"BlogPublisher/internal/infrastructure/llm"
	"BlogPublisher/internal/infrastructure/nats"
	"BlogPublisher/internal/infrastructure/scheduler"
	"BlogPublisher/internal/infrastructure/storage"
	"BlogPublisher/internal/infrastructure/telegram"
	"BlogPublisher/internal/infrastructure/x"
	"BlogPublisher/internal/logging"
	"BlogPublisher/internal/ports"
	"BlogPublisher/internal/server"
	"BlogPublisher/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	server    *server.Server
	closers   []func() error
}

// New builds every adapter from cfg. An unusable artifact directory is
// returned as *apperr.StorageWriteError and must stop the process.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	invoker, err := a.newInvoker(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	generator := content.NewGenerator(invoker, cfg.Generator.Timeout,
		content.WithLogger(baseLogger.With("component", "generator")),
	)

	ledger, health, err := a.newLedger(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	syncer, err := git.NewSync(cfg.Git, baseLogger.With("component", "git"))
	if err != nil {
		a.Close()
		return nil, err
	}

	store, err := artifact.New(artifact.StoreDeps{
		Root:    cfg.Storage.Root,
		BaseURL: cfg.Storage.BaseURL,
		Sync:    syncer,
		Ledger:  ledger,
		Logger:  baseLogger.With("component", "store"),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	channels, err := a.newChannels()
	if err != nil {
		a.Close()
		return nil, err
	}
	distributor := distribution.NewDistributor(channels, distribution.TeaserOptions{
		MaxLength:    cfg.Teaser.MaxLength,
		ExcerptLimit: cfg.Teaser.ExcerptLimit,
		Hashtags:     cfg.Teaser.Hashtags,
	}, baseLogger.With("component", "distributor"))

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Generator:   generator,
		Store:       store,
		Distributor: distributor,
		Ledger:      ledger,
		Topics:      cfg.Topics,
		Prompt:      content.PromptSpec{Name: "blog", Text: cfg.Generator.Prompt},
		Logger:      baseLogger.With("component", "pipeline"),
	})

	a.scheduler = usecase.NewScheduler(
		scheduler.NewIntervalScheduler(cfg.Scheduler.Interval),
		a.pipeline,
		baseLogger.With("component", "scheduler"),
	)

	a.server, err = server.NewServer(server.Deps{
		Config:    cfg.Server,
		BlogsDir:  store.Root(),
		Interval:  cfg.Scheduler.Interval,
		Publisher: a.pipeline,
		Health:    health,
		Logger:    baseLogger.With("component", "http"),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

func (a *Application) newInvoker(ctx context.Context) (ports.TextInvoker, error) {
	switch a.cfg.Generator.Provider {
	case config.ProviderGemini:
		client, err := llm.NewGeminiClient(ctx, a.cfg.Generator)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return client, nil
	default:
		if a.cfg.Generator.APIKey == "" {
			a.logger.Warn("generator api key is empty, provider calls will be rejected")
		}
		return llm.NewOpenAIClient(a.cfg.Generator), nil
	}
}

func (a *Application) newLedger(ctx context.Context) (ports.ArtifactLedger, server.HealthChecker, error) {
	if a.cfg.Database.DSN == "" {
		return storage.NewMemoryLedger(), nil, nil
	}

	db, err := storage.OpenPostgres(ctx, a.cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, db.Close)

	ledger := storage.NewPostgresLedger(db)
	if err := ledger.Migrate(ctx); err != nil {
		return nil, nil, err
	}
	return ledger, ledger, nil
}

// newChannels registers every channel with credentials and returns the
// configured selection.
func (a *Application) newChannels() ([]ports.Announcer, error) {
	registry := distribution.NewRegistry()

	if a.cfg.X.Configured() || a.cfg.X.BearerToken != "" {
		client, err := x.NewClient(a.cfg.X)
		if err != nil {
			return nil, err
		}
		registry.Register(client)
	}
	if a.cfg.Telegram.BotToken != "" && a.cfg.Telegram.ChatID != "" {
		registry.Register(telegram.NewNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID))
	}
	if a.cfg.NATS.URL != "" {
		nc, err := nats.Connect(a.cfg.NATS.URL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error {
			return nc.Drain()
		})
		registry.Register(nats.NewPublisher(nc, a.cfg.NATS.Subject, a.logger.With("component", "nats")))
	}

	channels, missing := registry.Select(a.cfg.Channels)
	if len(missing) > 0 {
		a.logger.Info("channels without credentials are disabled", "channels", missing)
	}
	return channels, nil
}

// Run starts the recurring cycle and the HTTP surface and blocks until ctx
// is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if !a.cfg.Scheduler.Disabled {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		a.logger.Info("scheduler started", "interval", a.cfg.Scheduler.Interval)
	}

	serverErr := a.server.Start(ctx)

	stopCtx, cancel := context.WithTimeout(context.Background(), server.GracefulShutdownTimeout)
	defer cancel()
	stopErr := a.scheduler.Stop(stopCtx)

	return errors.Join(serverErr, stopErr)
}

// RunOnce executes a single cycle; an empty topic picks a random one.
func (a *Application) RunOnce(ctx context.Context, topic string) (domain.CycleResult, error) {
	return a.pipeline.RunCycle(ctx, domain.Topic(topic))
}

// Close releases provider, database and broker connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
