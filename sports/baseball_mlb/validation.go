package baseball_mlb

import (
	"fmt"
	"strings"

	"github.com/XavierBriggs/Delphi/pkg/models"
)

// ValidateState checks that an MLB information state is usable
func (m *Module) ValidateState(state models.InformationState) error {
	if state.SportKey != "" && state.SportKey != m.config.SportKey {
		return fmt.Errorf("invalid sport key: expected %s, got %s", m.config.SportKey, state.SportKey)
	}

	if state.HomeTeam == "" || state.AwayTeam == "" {
		return fmt.Errorf("home and away teams are required")
	}

	if NormalizeTeamName(state.HomeTeam) == NormalizeTeamName(state.AwayTeam) {
		return fmt.Errorf("home and away teams cannot be the same")
	}

	if state.CommenceTime.IsZero() {
		return fmt.Errorf("commence time is required")
	}

	return nil
}

// NormalizeTeamName standardizes vendor team names
func NormalizeTeamName(name string) string {
	name = strings.TrimSpace(name)

	replacements := map[string]string{
		"LA Dodgers":        "Los Angeles Dodgers",
		"LA Angels":         "Los Angeles Angels",
		"NY Yankees":        "New York Yankees",
		"NY Mets":           "New York Mets",
		"SF Giants":         "San Francisco Giants",
		"SD Padres":         "San Diego Padres",
		"Chi White Sox":     "Chicago White Sox",
		"Chi Cubs":          "Chicago Cubs",
		"Oakland A's":       "Athletics",
		"Oakland Athletics": "Athletics",
	}

	if normalized, ok := replacements[name]; ok {
		return normalized
	}

	return name
}
