package baseball_mlb

import (
	"fmt"

	"github.com/XavierBriggs/Delphi/pkg/contracts"
	"github.com/XavierBriggs/Delphi/pkg/models"
)

// Module implements the SportModule interface for MLB Baseball
type Module struct {
	config *Config
}

// Ensure Module implements SportModule
var _ contracts.SportModule = (*Module)(nil)

// NewModule creates a new MLB sport module
func NewModule() *Module {
	return &Module{
		config: DefaultConfig(),
	}
}

// NewModuleWithConfig creates an MLB module with a custom configuration
func NewModuleWithConfig(cfg *Config) *Module {
	return &Module{config: cfg}
}

// GetSportKey returns the sport identifier
func (m *Module) GetSportKey() string {
	return m.config.SportKey
}

// GetDisplayName returns the human-readable name
func (m *Module) GetDisplayName() string {
	return m.config.DisplayName
}

// GetProbabilityBounds returns the moneyline realism bounds
func (m *Module) GetProbabilityBounds() contracts.ProbabilityBounds {
	return m.config.Bounds
}

// GetBookPreference returns the bookmaker preference order
func (m *Module) GetBookPreference() []string {
	return m.config.BookPreference
}

// GetTimeBuckets returns the time-to-start tiers
func (m *Module) GetTimeBuckets() []contracts.TimeBucket {
	return m.config.Fingerprint.TimeBuckets
}

// GetMarketMoveThreshold returns the material line move threshold
func (m *Module) GetMarketMoveThreshold() float64 {
	return m.config.Fingerprint.MarketMoveThreshold
}

// GetStarterLabel describes the starter milestone
func (m *Module) GetStarterLabel() string {
	return "probable pitchers"
}

// ValidateQuote performs MLB-specific validation
func (m *Module) ValidateQuote(quote models.MarketQuote) error {
	if err := quote.Validate(); err != nil {
		return err
	}

	// Baseball spreads are the run line
	if quote.Market == models.MarketSpread && quote.SpreadPoint != nil {
		if p := *quote.SpreadPoint; p != 1.5 && p != -1.5 {
			return fmt.Errorf("%w: unexpected MLB run line %.1f", models.ErrInvalidQuote, p)
		}
	}

	return nil
}
