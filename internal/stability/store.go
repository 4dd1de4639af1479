package stability

import (
	"context"
	"sync"
	"time"

	"github.com/XavierBriggs/Delphi/pkg/models"
)

// Store persists grade cache entries keyed by (eventID, fingerprint) and tracks
// the most recent entry per event. Implementations return models.ErrEntryNotFound
// when nothing is stored.
type Store interface {
	Get(ctx context.Context, eventID, fingerprint string) (*models.GradeCacheEntry, error)
	Latest(ctx context.Context, eventID string) (*models.GradeCacheEntry, error)
	Put(ctx context.Context, entry *models.GradeCacheEntry) error
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]map[string]*models.GradeCacheEntry
	latest  map[string]*models.GradeCacheEntry
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]map[string]*models.GradeCacheEntry),
		latest:  make(map[string]*models.GradeCacheEntry),
	}
}

// Get returns the entry stored under (eventID, fingerprint)
func (s *MemoryStore) Get(_ context.Context, eventID, fingerprint string) (*models.GradeCacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[eventID][fingerprint]
	if !ok {
		return nil, models.ErrEntryNotFound
	}
	return entry, nil
}

// Latest returns the most recently computed entry for the event
func (s *MemoryStore) Latest(_ context.Context, eventID string) (*models.GradeCacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.latest[eventID]
	if !ok {
		return nil, models.ErrEntryNotFound
	}
	return entry, nil
}

// Put stores the entry under its fingerprint. The latest pointer only moves
// forward in ComputedAt order.
func (s *MemoryStore) Put(_ context.Context, entry *models.GradeCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byFingerprint, ok := s.entries[entry.EventID]
	if !ok {
		byFingerprint = make(map[string]*models.GradeCacheEntry)
		s.entries[entry.EventID] = byFingerprint
	}
	byFingerprint[entry.Fingerprint] = entry

	if IsNewer(entry, s.latest[entry.EventID]) {
		s.latest[entry.EventID] = entry
	}

	return nil
}

// Sweep drops entries computed before cutoff. Superseded entries go first; an
// event's latest entry is only dropped once it is terminal or past its expiry.
// Returns the number of entries removed.
func (s *MemoryStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0

	for eventID, byFingerprint := range s.entries {
		latest := s.latest[eventID]

		for fp, entry := range byFingerprint {
			if entry == latest || !entry.ComputedAt.Before(cutoff) {
				continue
			}
			delete(byFingerprint, fp)
			removed++
		}

		if latest == nil || !latest.ComputedAt.Before(cutoff) {
			continue
		}

		expired := !latest.ExpiresAt.IsZero() && latest.ExpiresAt.Before(cutoff)
		if latest.Terminal || expired {
			removed += len(byFingerprint)
			delete(s.entries, eventID)
			delete(s.latest, eventID)
		}
	}

	return removed
}

// Len returns the number of stored entries
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, byFingerprint := range s.entries {
		n += len(byFingerprint)
	}
	return n
}

// IsNewer reports whether candidate should replace current as an event's latest entry
func IsNewer(candidate, current *models.GradeCacheEntry) bool {
	if current == nil {
		return true
	}
	if candidate.Fingerprint == current.Fingerprint {
		return true
	}
	return !candidate.ComputedAt.Before(current.ComputedAt)
}
