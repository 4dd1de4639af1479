package closer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// FinishedLister reports events whose result is in
type FinishedLister interface {
	ListFinishedEvents(ctx context.Context, since time.Time) ([]string, error)
}

// Terminator moves an event's grades to their terminal state
type Terminator interface {
	MarkClosed(ctx context.Context, eventID string) error
	IsClosed(eventID string) bool
}

// Closer watches for finished events and closes their grades
type Closer struct {
	events       FinishedLister
	engine       Terminator
	pollInterval time.Duration
	lookback     time.Duration
	logger       zerolog.Logger
	now          func() time.Time
	stopChan     chan struct{}
}

// NewCloser creates a new grade closer. lookback bounds how far back finished events are scanned.
func NewCloser(events FinishedLister, engine Terminator, pollInterval, lookback time.Duration, logger zerolog.Logger) *Closer {
	return &Closer{
		events:       events,
		engine:       engine,
		pollInterval: pollInterval,
		lookback:     lookback,
		logger:       logger.With().Str("component", "closer").Logger(),
		now:          time.Now,
		stopChan:     make(chan struct{}),
	}
}

// Start begins monitoring for finished events
func (c *Closer) Start(ctx context.Context) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	c.logger.Info().Dur("poll_interval", c.pollInterval).Msg("closer started")

	// Initial check immediately
	if _, err := c.closeFinished(ctx); err != nil {
		c.logger.Error().Err(err).Msg("initial close error")
	}

	for {
		select {
		case <-ticker.C:
			if _, err := c.closeFinished(ctx); err != nil {
				c.logger.Error().Err(err).Msg("close error")
			}
		case <-c.stopChan:
			c.logger.Info().Msg("closer stopped")
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop gracefully stops the closer
func (c *Closer) Stop() {
	close(c.stopChan)
}

// closeFinished marks every newly finished event closed and returns how many it closed
func (c *Closer) closeFinished(ctx context.Context) (int, error) {
	finished, err := c.events.ListFinishedEvents(ctx, c.now().Add(-c.lookback))
	if err != nil {
		return 0, fmt.Errorf("list finished events: %w", err)
	}

	closed := 0
	for _, eventID := range finished {
		if c.engine.IsClosed(eventID) {
			continue
		}

		if err := c.engine.MarkClosed(ctx, eventID); err != nil {
			c.logger.Warn().Err(err).Str("event_id", eventID).Msg("close event failed")
			continue
		}
		closed++
	}

	if closed > 0 {
		c.logger.Info().Int("closed", closed).Msg("closed finished events")
	}

	return closed, nil
}
