package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"BlogPublisher/internal/apperr"
	"BlogPublisher/internal/logging"
	"BlogPublisher/internal/ports"
)

// Scheduler wires the interval driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring cycles.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline with the provided scheduler. A tick that
// lands while a cycle is running is skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		_, err := s.pipeline.TryRunCycle(ctx)
		switch {
		case err == nil:
		case errors.Is(err, apperr.ErrCycleInFlight):
			s.logger.Warn("tick skipped", "trigger", trigger, "error", err)
		default:
			s.logger.Error("scheduled cycle failed", "trigger", trigger, "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
