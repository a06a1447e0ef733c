package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// sweepTimeout bounds a single sweep run
const sweepTimeout = time.Minute

// CycleSweeper closes voting cycles whose deadline has passed
type CycleSweeper interface {
	SweepExpiredCycles(ctx context.Context) (int, error)
}

// Sweeper runs CycleSweeper on a fixed interval. Runs never overlap.
type Sweeper struct {
	scheduler *gocron.Scheduler
	cycles    CycleSweeper
	interval  time.Duration
	logger    zerolog.Logger
}

// NewSweeper creates a sweeper; call Start to schedule it
func NewSweeper(cycles CycleSweeper, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		scheduler: gocron.NewScheduler(time.UTC),
		cycles:    cycles,
		interval:  interval,
		logger:    logger.With().Str("component", "cycle_sweeper").Logger(),
	}
}

// Start schedules the sweep job and returns immediately. The first run
// happens right away.
func (s *Sweeper) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", s.interval)
	}

	if _, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.run); err != nil {
		return fmt.Errorf("failed to schedule cycle sweep: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info().Dur("interval", s.interval).Msg("Cycle sweeper started")
	return nil
}

// Stop cancels future runs and waits for a running sweep to return
func (s *Sweeper) Stop() {
	s.scheduler.Stop()
	s.logger.Info().Msg("Cycle sweeper stopped")
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	closed, err := s.cycles.SweepExpiredCycles(ctx)
	if err != nil {
		s.logger.Error().Err(err).Int("closed", closed).Msg("Cycle sweep failed")
		return
	}
	if closed > 0 {
		s.logger.Info().Int("closed", closed).Msg("Closed expired voting cycles")
	}
}
