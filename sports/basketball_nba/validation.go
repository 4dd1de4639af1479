package basketball_nba

import (
	"fmt"
	"strings"

	"github.com/XavierBriggs/Delphi/pkg/models"
)

// ValidateState checks that an NBA information state is usable
func (m *Module) ValidateState(state models.InformationState) error {
	if state.SportKey != "" && state.SportKey != m.config.SportKey {
		return fmt.Errorf("invalid sport key: expected %s, got %s", m.config.SportKey, state.SportKey)
	}

	if state.HomeTeam == "" {
		return fmt.Errorf("home team cannot be empty")
	}

	if state.AwayTeam == "" {
		return fmt.Errorf("away team cannot be empty")
	}

	if NormalizeTeamName(state.HomeTeam) == NormalizeTeamName(state.AwayTeam) {
		return fmt.Errorf("home and away teams cannot be the same")
	}

	if state.CommenceTime.IsZero() {
		return fmt.Errorf("commence time is required")
	}

	return nil
}

// NormalizeTeamName standardizes team names from vendor
// Handles variations like "LA Lakers" vs "Los Angeles Lakers"
func NormalizeTeamName(name string) string {
	name = strings.TrimSpace(name)

	replacements := map[string]string{
		"LA Lakers":   "Los Angeles Lakers",
		"LA Clippers": "Los Angeles Clippers",
		"NY Knicks":   "New York Knicks",
		"GS Warriors": "Golden State Warriors",
		"SA Spurs":    "San Antonio Spurs",
		"OKC Thunder": "Oklahoma City Thunder",
		"NO Pelicans": "New Orleans Pelicans",
	}

	if normalized, ok := replacements[name]; ok {
		return normalized
	}

	return name
}
