package baseball_mlb

import (
	"github.com/XavierBriggs/Delphi/pkg/contracts"
)

// Config contains MLB-specific grading configuration
type Config struct {
	// Sport identification
	SportKey    string
	DisplayName string

	// Moneyline realism bounds; a baseball favorite rarely clears 75%
	Bounds contracts.ProbabilityBounds

	// Bookmakers in preference order (first listed quote wins)
	BookPreference []string

	// Fingerprint configuration
	Fingerprint FingerprintConfig
}

// FingerprintConfig controls when a grade is allowed to change
type FingerprintConfig struct {
	// Implied-probability shift that counts as a material line move
	MarketMoveThreshold float64

	// Coarse time-to-start tiers
	TimeBuckets []contracts.TimeBucket
}

// DefaultConfig returns the production MLB configuration
func DefaultConfig() *Config {
	return &Config{
		SportKey:    "baseball_mlb",
		DisplayName: "MLB Baseball",
		Bounds: contracts.ProbabilityBounds{
			Min: 0.25,
			Max: 0.75,
		},
		BookPreference: []string{
			"pinnacle",
			"circasports",
			"draftkings",
			"fanduel",
			"betmgm",
			"williamhill_us",
			"bovada",
		},
		Fingerprint: FingerprintConfig{
			MarketMoveThreshold: 0.02,
			TimeBuckets: []contracts.TimeBucket{
				{Name: "early", FromHours: 9999, ToHours: 24},
				{Name: "day_of", FromHours: 24, ToHours: 6},
				{Name: "pregame", FromHours: 6, ToHours: 1.5}, // probable pitchers usually locked
				{Name: "imminent", FromHours: 1.5, ToHours: 0}, // lineups post
			},
		},
	}
}
