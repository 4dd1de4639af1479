package basketball_nba_test

import (
	"testing"
	"time"

	"github.com/XavierBriggs/Delphi/pkg/models"
	"github.com/XavierBriggs/Delphi/sports/basketball_nba"
)

func TestDefaultConfig(t *testing.T) {
	config := basketball_nba.DefaultConfig()

	if config.SportKey != "basketball_nba" {
		t.Errorf("expected sport_key basketball_nba, got %s", config.SportKey)
	}

	if config.Bounds.Min != 0.15 || config.Bounds.Max != 0.85 {
		t.Errorf("expected bounds 0.15-0.85, got %.2f-%.2f", config.Bounds.Min, config.Bounds.Max)
	}

	if len(config.Fingerprint.TimeBuckets) != 5 {
		t.Errorf("expected 5 time buckets, got %d", len(config.Fingerprint.TimeBuckets))
	}
}

func TestModule_StarterLabel(t *testing.T) {
	if label := basketball_nba.NewModule().GetStarterLabel(); label == "" {
		t.Error("expected a starter label")
	}
}

func TestValidateState(t *testing.T) {
	module := basketball_nba.NewModule()

	state := models.InformationState{
		EventID:      "evt_nba",
		SportKey:     "basketball_nba",
		HomeTeam:     "Los Angeles Lakers",
		AwayTeam:     "Boston Celtics",
		CommenceTime: time.Date(2026, 1, 10, 3, 30, 0, 0, time.UTC),
	}
	if err := module.ValidateState(state); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	state.AwayTeam = "LA Lakers"
	if err := module.ValidateState(state); err == nil {
		t.Error("expected error when both sides normalize to the same team")
	}
}

func TestNewModuleWithConfig(t *testing.T) {
	config := basketball_nba.DefaultConfig()
	config.BookPreference = []string{"fanduel"}

	module := basketball_nba.NewModuleWithConfig(config)
	if got := module.GetBookPreference(); len(got) != 1 || got[0] != "fanduel" {
		t.Errorf("expected overridden book preference, got %v", got)
	}
}
