package basketball_nba

import (
	"fmt"

	"github.com/XavierBriggs/Delphi/pkg/contracts"
	"github.com/XavierBriggs/Delphi/pkg/models"
)

// Module implements the SportModule interface for NBA Basketball
type Module struct {
	config *Config
}

// Ensure Module implements SportModule
var _ contracts.SportModule = (*Module)(nil)

// NewModule creates a new NBA sport module
func NewModule() *Module {
	return &Module{
		config: DefaultConfig(),
	}
}

// NewModuleWithConfig creates an NBA module with custom configuration
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
	return "starting five"
}

// ValidateQuote performs NBA-specific validation
func (m *Module) ValidateQuote(quote models.MarketQuote) error {
	if err := quote.Validate(); err != nil {
		return err
	}

	// NBA totals outside this band are almost certainly a feed error
	if quote.Market == models.MarketTotal && quote.TotalPoint != nil {
		if p := *quote.TotalPoint; p < 150 || p > 300 {
			return fmt.Errorf("%w: implausible NBA total %.1f", models.ErrInvalidQuote, p)
		}
	}

	return nil
}
