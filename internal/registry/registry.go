package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/XavierBriggs/Delphi/pkg/contracts"
	"github.com/XavierBriggs/Delphi/pkg/models"
)

// SportRegistry manages registered sport modules
type SportRegistry struct {
	sports       map[string]contracts.SportModule
	defaultSport string
	mu           sync.RWMutex
}

// NewSportRegistry creates a new sport registry
func NewSportRegistry() *SportRegistry {
	return &SportRegistry{
		sports: make(map[string]contracts.SportModule),
	}
}

// Register adds a sport module to the registry.
// The first module registered becomes the default for events with no sport key.
func (r *SportRegistry) Register(sport contracts.SportModule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sportKey := sport.GetSportKey()
	if _, exists := r.sports[sportKey]; exists {
		return fmt.Errorf("sport %s is already registered", sportKey)
	}

	r.sports[sportKey] = sport
	if r.defaultSport == "" {
		r.defaultSport = sportKey
	}
	return nil
}

// Get retrieves a sport module by key
func (r *SportRegistry) Get(sportKey string) (contracts.SportModule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sport, exists := r.sports[sportKey]
	return sport, exists
}

// Resolve returns the module for sportKey, or the default module when sportKey is empty
func (r *SportRegistry) Resolve(sportKey string) (contracts.SportModule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if sportKey == "" {
		sportKey = r.defaultSport
	}

	sport, exists := r.sports[sportKey]
	if !exists {
		return nil, fmt.Errorf("sport %q: %w", sportKey, models.ErrUnsupportedSport)
	}
	return sport, nil
}

// GetAll returns all registered sports ordered by key
func (r *SportRegistry) GetAll() []contracts.SportModule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sports := make([]contracts.SportModule, 0, len(r.sports))
	for _, sport := range r.sports {
		sports = append(sports, sport)
	}
	sort.Slice(sports, func(i, j int) bool {
		return sports[i].GetSportKey() < sports[j].GetSportKey()
	})
	return sports
}

// Count returns the number of registered sports
func (r *SportRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sports)
}
