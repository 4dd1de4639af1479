package stability

import (
	"context"
	"time"

	"github.com/XavierBriggs/Delphi/pkg/models"
)

// Observer receives engine events for metrics
type Observer interface {
	CacheHit(sportKey string)
	CacheMiss(sportKey string)
	Recomputed(sportKey string, elapsed time.Duration, recs []models.Recommendation)
	RecomputeTimedOut(sportKey string)
	ClosedServed(sportKey string, policy ClosedPolicy)
}

// Recorder keeps an audit trail of computed entries (e.g. Postgres history)
type Recorder interface {
	Record(ctx context.Context, entry *models.GradeCacheEntry, previous *models.GradeCacheEntry) error
	MarkTerminal(ctx context.Context, eventID string) error
}

type noopObserver struct{}

func (noopObserver) CacheHit(string)                                           {}
func (noopObserver) CacheMiss(string)                                          {}
func (noopObserver) Recomputed(string, time.Duration, []models.Recommendation) {}
func (noopObserver) RecomputeTimedOut(string)                                  {}
func (noopObserver) ClosedServed(string, ClosedPolicy)                         {}
