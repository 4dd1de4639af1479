package basketball_nba

import (
	"github.com/XavierBriggs/Delphi/pkg/contracts"
)

// Config contains NBA-specific grading configuration
type Config struct {
	// Sport identification
	SportKey    string
	DisplayName string

	// Moneyline realism bounds; NBA favorites run heavier than baseball
	Bounds contracts.ProbabilityBounds

	// Bookmakers in preference order
	BookPreference []string

	// Fingerprint configuration
	Fingerprint FingerprintConfig
}

// FingerprintConfig controls when a grade is allowed to change
type FingerprintConfig struct {
	MarketMoveThreshold float64
	TimeBuckets         []contracts.TimeBucket
}

// DefaultConfig returns the production NBA configuration
func DefaultConfig() *Config {
	return &Config{
		SportKey:    "basketball_nba",
		DisplayName: "NBA Basketball",
		Bounds: contracts.ProbabilityBounds{
			Min: 0.15,
			Max: 0.85,
		},
		BookPreference: []string{
			"pinnacle",
			"draftkings",
			"fanduel",
			"betmgm",
			"williamhill_us",
			"bovada",
		},
		Fingerprint: FingerprintConfig{
			MarketMoveThreshold: 0.025,
			TimeBuckets: []contracts.TimeBucket{
				{Name: "early", FromHours: 9999, ToHours: 24},
				{Name: "day_of", FromHours: 24, ToHours: 6},
				{Name: "pregame", FromHours: 6, ToHours: 1.5},
				{Name: "injury_report", FromHours: 1.5, ToHours: 0.5}, // final injury report window
				{Name: "imminent", FromHours: 0.5, ToHours: 0},
			},
		},
	}
}
