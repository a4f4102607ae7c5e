package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/prepdeckhq/prepdeck-backend/pkg/logger"
)

const defaultInterval = 5 * time.Minute

// ServiceParams configure the dispatch service loop.
type ServiceParams struct {
	Logger   *logger.Logger
	Engine   *Engine
	Lock     Lock
	Interval time.Duration
}

// Service runs engine ticks on a fixed cadence, one replica at a time.
type Service struct {
	logg     *logger.Logger
	engine   *Engine
	lock     Lock
	interval time.Duration
}

// NewService builds a dispatch service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("engine required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		engine:   params.Engine,
		lock:     params.Lock,
		interval: interval,
	}, nil
}

// Run starts the tick loop until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.runTick(ctx); err != nil {
		s.logg.Error(ctx, "dispatch tick failed", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "dispatch service context canceled")
			return ctx.Err()
		case <-ticker.C:
			if err := s.runTick(ctx); err != nil {
				s.logg.Error(ctx, "dispatch tick failed", err)
			}
		}
	}
}

func (s *Service) runTick(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "another dispatch instance is running; skipping this tick")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release dispatch lock", relErr)
		}
	}()

	s.logg.Info(ctx, "dispatch tick starting")
	start := time.Now()
	summary, err := s.engine.RunTick(ctx)
	tickCtx := s.logg.WithFields(ctx, map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
		"alerts":      summary.AlertsDispatched,
		"reminders":   summary.RemindersDispatched,
		"digests":     summary.DigestsSent,
	})
	if err != nil {
		s.logg.Error(tickCtx, "dispatch tick completed with pass failures", err)
		return nil
	}
	s.logg.Info(tickCtx, "dispatch tick complete")
	return nil
}
