package oddsmath

import (
	"fmt"
	"math"

	"github.com/XavierBriggs/Delphi/pkg/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ImpliedProbability converts American odds to the win probability they represent
// with zero margin.
// -240 → 0.7059, +194 → 0.3401
func ImpliedProbability(american int) (float64, error) {
	if err := validateAmerican(american); err != nil {
		return 0, err
	}

	if american > 0 {
		return 100.0 / (float64(american) + 100.0), nil
	}

	abs := float64(-american)
	return abs / (abs + 100.0), nil
}

// AmericanToDecimal converts American odds to decimal odds
// American +150 → Decimal 2.50
// American -150 → Decimal 1.67
func AmericanToDecimal(american int) (float64, error) {
	payout, err := Payout(american)
	if err != nil {
		return 0, err
	}
	return payout + 1.0, nil
}

// DecimalToAmerican converts decimal odds to American odds
// Decimal 2.50 → American +150
// Decimal 1.67 → American -150
func DecimalToAmerican(dec float64) (int, error) {
	if dec <= 1.0 {
		return 0, fmt.Errorf("%w: decimal odds must be > 1.0", models.ErrInvalidOdds)
	}

	if dec >= 2.0 {
		return int(math.Round((dec - 1.0) * 100.0)), nil
	}

	return int(math.Round(-100.0 / (dec - 1.0))), nil
}

// ProbabilityToAmerican converts a probability to the fair American price
func ProbabilityToAmerican(probability float64) (int, error) {
	if probability <= 0 || probability >= 1 {
		return 0, fmt.Errorf("invalid probability %.4f: must be between 0 and 1", probability)
	}
	return DecimalToAmerican(1.0 / probability)
}

// Payout returns the net profit per unit staked (odds>0: odds/100, else 100/|odds|)
func Payout(american int) (float64, error) {
	d, err := payoutDecimal(american)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

func payoutDecimal(american int) (decimal.Decimal, error) {
	if err := validateAmerican(american); err != nil {
		return decimal.Zero, err
	}

	if american > 0 {
		return decimal.NewFromInt(int64(american)).Div(hundred), nil
	}

	return hundred.Div(decimal.NewFromInt(int64(-american))), nil
}

// validateAmerican rejects 0 and anything strictly between -100 and +100
func validateAmerican(american int) error {
	if american == 0 {
		return fmt.Errorf("%w: cannot be 0", models.ErrInvalidOdds)
	}
	if american > -100 && american < 100 {
		return fmt.Errorf("%w: %d is between -100 and +100", models.ErrInvalidOdds, american)
	}
	return nil
}

// RemoveVig normalizes a two-way moneyline to fair probabilities that sum to 1
func RemoveVig(homeOdds, awayOdds int) (fairHome, fairAway float64, err error) {
	home, err := ImpliedProbability(homeOdds)
	if err != nil {
		return 0, 0, fmt.Errorf("home side: %w", err)
	}

	away, err := ImpliedProbability(awayOdds)
	if err != nil {
		return 0, 0, fmt.Errorf("away side: %w", err)
	}

	total := home + away
	return home / total, away / total, nil
}
