package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const jobName = "pond-status-broadcast"

// Scheduler runs Broadcaster.PublishRound every interval. Rounds never
// overlap: a round still running when the next is due pushes it back.
type Scheduler struct {
	scheduler   gocron.Scheduler
	broadcaster *Broadcaster
	interval    time.Duration
	logger      *slog.Logger

	baseCtx context.Context
}

func NewScheduler(b *Broadcaster, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("broadcast interval must be positive, got %s", interval)
	}
	if logger == nil {
		logger = slog.Default()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{
		scheduler:   s,
		broadcaster: b,
		interval:    interval,
		logger:      logger,
		baseCtx:     context.Background(),
	}, nil
}

// Start schedules the broadcast job, first round immediately. Rounds are
// cancelled once ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.baseCtx = ctx
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.runRound),
		gocron.WithName(jobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create broadcast job: %w", err)
	}
	s.logger.Info("starting status broadcaster", "interval", s.interval.String())
	s.scheduler.Start()
	return nil
}

// Stop waits for a running round to finish.
func (s *Scheduler) Stop() error {
	s.logger.Info("stopping status broadcaster")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) runRound() {
	// A round may not outlive the interval it belongs to.
	ctx, cancel := context.WithTimeout(s.baseCtx, s.interval)
	defer cancel()

	start := time.Now()
	n, err := s.broadcaster.PublishRound(ctx)
	if err != nil {
		s.logger.Error("status broadcast round failed", "published", n, "error", err)
		return
	}
	s.logger.Debug("status broadcast round done", "published", n, "duration_ms", time.Since(start).Milliseconds())
}
