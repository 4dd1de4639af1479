package testutil

import (
	"time"

	"github.com/XavierBriggs/Delphi/pkg/models"
)

// NewTestState creates a scheduled MLB information state starting hoursUntilStart after now
func NewTestState(eventID string, now time.Time, hoursUntilStart float64) models.InformationState {
	return models.InformationState{
		EventID:      eventID,
		SportKey:     "baseball_mlb",
		HomeTeam:     "New York Yankees",
		AwayTeam:     "Boston Red Sox",
		CommenceTime: now.Add(time.Duration(hoursUntilStart * float64(time.Hour))),
		Status:       models.StatusScheduled,
	}
}

// NewTestQuote creates a moneyline quote
func NewTestQuote(eventID, bookKey string, home, away int, observedAt time.Time) models.MarketQuote {
	return models.MarketQuote{
		EventID:       eventID,
		BookKey:       bookKey,
		Market:        models.MarketMoneyline,
		HomeMoneyline: home,
		AwayMoneyline: away,
		ObservedAt:    observedAt,
	}
}

// NewTestPrediction creates a model output with complementary win probabilities
func NewTestPrediction(eventID string, homeWin, confidence float64) models.Prediction {
	return models.Prediction{
		EventID:            eventID,
		HomeWinProbability: homeWin,
		AwayWinProbability: 1 - homeWin,
		Confidence:         confidence,
		GeneratedAt:        time.Date(2026, 6, 12, 12, 0, 0, 0, time.UTC),
	}
}

// NewTestOdd creates a test h2h outcome row
func NewTestOdd(eventID, bookKey, outcomeName string, price int) models.RawOdds {
	now := time.Date(2026, 6, 12, 12, 0, 0, 0, time.UTC)
	return models.RawOdds{
		EventID:          eventID,
		SportKey:         "baseball_mlb",
		MarketKey:        string(models.MarketMoneyline),
		BookKey:          bookKey,
		OutcomeName:      outcomeName,
		Price:            price,
		VendorLastUpdate: now,
		ReceivedAt:       now,
	}
}

// GoldenFixture is a moneyline pair with known conversions
type GoldenFixture struct {
	Name              string
	Home              int
	Away              int
	ExpectedHome      float64 // implied probability, 4 dp
	ExpectedAway      float64
	ExpectedNoVigHome float64 // proportional no-vig home probability, 4 dp
}

// GetGoldenFixtures returns moneyline fixtures with expected outputs
func GetGoldenFixtures() []GoldenFixture {
	return []GoldenFixture{
		{
			Name:              "Even Money",
			Home:              -110,
			Away:              -110,
			ExpectedHome:      0.5238,
			ExpectedAway:      0.5238,
			ExpectedNoVigHome: 0.50,
		},
		{
			Name:              "Anchored Underdog",
			Home:              -240,
			Away:              194,
			ExpectedHome:      0.7059,
			ExpectedAway:      0.3401,
			ExpectedNoVigHome: 0.6748,
		},
		{
			Name:              "Home Underdog",
			Home:              130,
			Away:              -150,
			ExpectedHome:      0.4348,
			ExpectedAway:      0.60,
			ExpectedNoVigHome: 0.4202,
		},
		{
			Name:              "Heavy Favorite",
			Home:              -567,
			Away:              420,
			ExpectedHome:      0.8501,
			ExpectedAway:      0.1923,
			ExpectedNoVigHome: 0.8155,
		},
	}
}
