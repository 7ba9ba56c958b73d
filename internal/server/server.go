package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"BlogPublisher/internal/config"
	"BlogPublisher/internal/domain"
	"BlogPublisher/internal/logging"
	"BlogPublisher/pkg/logger"
)

const (
	// GracefulShutdownTimeout bounds how long Start waits for in-flight requests.
	GracefulShutdownTimeout = 10 * time.Second
)

// Publisher is the pipeline surface the handlers drive.
type Publisher interface {
	RunCycle(ctx context.Context, topic domain.Topic) (domain.CycleResult, error)
	State() domain.CycleState
	Resync(ctx context.Context, filename string) (domain.ArtifactRecord, error)
	Recent(ctx context.Context, limit int) ([]domain.ArtifactRecord, error)
	PickTopic() domain.Topic
}

// HealthChecker reports whether the server's dependencies are usable.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// OkHealthChecker is always healthy; used when no database is configured.
type OkHealthChecker struct{}

func (OkHealthChecker) Healthy(context.Context) bool {
	return true
}

// Deps wires the server's collaborators.
type Deps struct {
	Config    config.ServerConfig
	BlogsDir  string
	Interval  time.Duration
	Publisher Publisher
	Health    HealthChecker
	Logger    *slog.Logger
}

// Server is the echo-based HTTP surface.
type Server struct {
	Echo *echo.Echo

	cfg    config.ServerConfig
	logger *slog.Logger
}

// NewServer builds the echo instance with middleware and routes.
func NewServer(deps Deps) (*Server, error) {
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}
	health := deps.Health
	if health == nil {
		health = OkHealthChecker{}
	}

	templates, err := NewTemplates()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = templates
	e.HTTPErrorHandler = GlobalErrorHandler(log)
	e.StdLogger = logger.New(log, "http")

	s := &Server{
		Echo:   e,
		cfg:    deps.Config,
		logger: log,
	}

	s.setupMiddlewares()

	h := &handlers{
		publisher: deps.Publisher,
		health:    health,
		interval:  deps.Interval,
	}
	h.register(e)
	if deps.BlogsDir != "" {
		e.Static("/blogs", deps.BlogsDir)
	}

	return s, nil
}

func (s *Server) setupMiddlewares() {
	s.Echo.Use(RequestLogger(s.logger))
	s.Echo.Use(middleware.Recover())
	origins := s.cfg.CorsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.Echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "port", s.cfg.Port)
		if err := s.Echo.Start(":" + s.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
	defer cancel()

	if err := s.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
