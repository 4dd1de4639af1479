package contracts

import (
	"github.com/XavierBriggs/Delphi/pkg/models"
)

// ProbabilityBounds is the realistic range a moneyline win probability may take for a sport
type ProbabilityBounds struct {
	Min float64
	Max float64
}

// Clamp restricts p to the bounds
func (b ProbabilityBounds) Clamp(p float64) float64 {
	if p < b.Min {
		return b.Min
	}
	if p > b.Max {
		return b.Max
	}
	return p
}

// TimeBucket is a coarse time-to-start tier used by fingerprinting
type TimeBucket struct {
	Name      string
	FromHours float64 // Hours until start (inclusive upper bound)
	ToHours   float64 // Hours until start (exclusive lower bound)
}

// SportModule defines the sport-specific knobs of the grading engine
// This lets Delphi grade multiple sports with one engine
type SportModule interface {
	// GetSportKey returns the unique identifier for this sport (e.g., "baseball_mlb")
	GetSportKey() string

	// GetDisplayName returns the human-readable name (e.g., "MLB Baseball")
	GetDisplayName() string

	// GetProbabilityBounds returns the moneyline probability realism bounds
	GetProbabilityBounds() ProbabilityBounds

	// GetBookPreference returns bookmaker keys, most reliable first
	GetBookPreference() []string

	// GetTimeBuckets returns the time-to-start tiers, farthest first
	GetTimeBuckets() []TimeBucket

	// GetMarketMoveThreshold returns the implied-probability shift that counts as a material move
	GetMarketMoveThreshold() float64

	// GetStarterLabel names what "starter confirmed" means for this sport
	GetStarterLabel() string

	// ValidateQuote performs sport-specific validation on a market quote
	ValidateQuote(quote models.MarketQuote) error

	// ValidateState performs sport-specific validation on an information state
	ValidateState(state models.InformationState) error
}
