package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/XavierBriggs/Delphi/pkg/contracts"
	"github.com/XavierBriggs/Delphi/pkg/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Evaluator is the read path the scheduler keeps warm
type Evaluator interface {
	Evaluate(ctx context.Context, eventID string) (*models.Evaluation, error)
}

// Sweeper drops retained state older than cutoff and returns how much it removed
type Sweeper func(cutoff time.Time) int

// Config controls refresh and retention cadence
type Config struct {
	RefreshInterval time.Duration
	SweepInterval   time.Duration
	Retention       time.Duration
	Concurrency     int
	JitterSeconds   int
}

// DefaultConfig returns the production scheduler configuration
func DefaultConfig() Config {
	return Config{
		RefreshInterval: 60 * time.Second,
		SweepInterval:   15 * time.Minute,
		Retention:       72 * time.Hour,
		Concurrency:     8,
		JitterSeconds:   5,
	}
}

// Stats summarizes one refresh pass
type Stats struct {
	Events  int
	Warmed  int
	Skipped int
	Failed  int
}

// Scheduler pre-warms grades for active events and sweeps retained state
type Scheduler struct {
	events   contracts.EventLister
	engine   Evaluator
	sweepers []Sweeper
	cfg      Config
	logger   zerolog.Logger
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler creates a new refresh scheduler
func NewScheduler(events contracts.EventLister, engine Evaluator, cfg Config, logger zerolog.Logger, sweepers ...Sweeper) *Scheduler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	return &Scheduler{
		events:   events,
		engine:   engine,
		sweepers: sweepers,
		cfg:      cfg,
		logger:   logger.With().Str("component", "scheduler").Logger(),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Start begins the refresh and sweep loops
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %v", s.cfg.RefreshInterval)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.refreshLoop(ctx)
	}()

	if s.cfg.SweepInterval > 0 && len(s.sweepers) > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.sweepLoop(ctx)
		}()
	}

	s.logger.Info().
		Dur("refresh_interval", s.cfg.RefreshInterval).
		Int("concurrency", s.cfg.Concurrency).
		Msg("scheduler started")

	return nil
}

// Stop gracefully shuts down the scheduler
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}

func (s *Scheduler) refreshLoop(ctx context.Context) {
	// Initial refresh immediately
	if _, err := s.refresh(ctx); err != nil {
		s.logger.Error().Err(err).Msg("initial refresh error")
	}

	timer := time.NewTimer(addJitter(s.cfg.RefreshInterval, s.cfg.JitterSeconds))
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			if _, err := s.refresh(ctx); err != nil {
				s.logger.Error().Err(err).Msg("refresh error")
			}
			timer.Reset(addJitter(s.cfg.RefreshInterval, s.cfg.JitterSeconds))
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// refresh evaluates every active event with bounded concurrency
func (s *Scheduler) refresh(ctx context.Context) (Stats, error) {
	start := time.Now()

	ids, err := s.events.ListActiveEvents(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list active events: %w", err)
	}

	var warmed, skipped, failed int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.cfg.Concurrency)

	for _, eventID := range ids {
		eventID := eventID
		group.Go(func() error {
			_, err := s.engine.Evaluate(groupCtx, eventID)
			switch {
			case err == nil:
				atomic.AddInt64(&warmed, 1)
			case errors.Is(err, models.ErrEventClosed):
				atomic.AddInt64(&skipped, 1)
			default:
				atomic.AddInt64(&failed, 1)
				s.logger.Warn().Err(err).Str("event_id", eventID).Msg("refresh failed")
			}
			// One event failing must not cancel the rest of the pass
			return nil
		})
	}

	_ = group.Wait()
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Events:  len(ids),
		Warmed:  int(warmed),
		Skipped: int(skipped),
		Failed:  int(failed),
	}

	s.logger.Debug().
		Int("events", stats.Events).
		Int("warmed", stats.Warmed).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Dur("elapsed", time.Since(start)).
		Msg("refresh complete")

	return stats, nil
}

// sweep runs every sweeper against the retention cutoff
func (s *Scheduler) sweep() int {
	cutoff := s.now().Add(-s.cfg.Retention)

	removed := 0
	for _, sweeper := range s.sweepers {
		removed += sweeper(cutoff)
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Time("cutoff", cutoff).Msg("retention sweep")
	}

	return removed
}

// addJitter adds random jitter to prevent synchronization across replicas
func addJitter(duration time.Duration, jitterSeconds int) time.Duration {
	if jitterSeconds <= 0 {
		return duration
	}

	jitter := time.Duration(rand.Intn(jitterSeconds)) * time.Second
	return duration + jitter
}
