package oddsmath

import (
	"github.com/shopspring/decimal"
)

// MaxKellyFraction caps any recommended stake at 5% of bankroll
const MaxKellyFraction = 0.05

// resultPlaces is the precision EV and Kelly values are rounded to so that
// repeated evaluations serialize identically
const resultPlaces = 6

// ExpectedValuePercent returns the percent ROI per unit stake
// EV% = 100 × (prob × payout − (1 − prob))
func ExpectedValuePercent(prob float64, american int) (float64, error) {
	payout, err := payoutDecimal(american)
	if err != nil {
		return 0, err
	}

	p := decimal.NewFromFloat(prob)
	q := decimal.NewFromInt(1).Sub(p)

	ev := p.Mul(payout).Sub(q).Mul(hundred)
	return ev.Round(resultPlaces).InexactFloat64(), nil
}

// KellyFraction returns the stake fraction (payout×p − q) / payout clamped to
// [0, MaxKellyFraction]. A negative raw Kelly means no bet, never a negative stake.
func KellyFraction(prob float64, american int) (float64, error) {
	payout, err := payoutDecimal(american)
	if err != nil {
		return 0, err
	}

	p := decimal.NewFromFloat(prob)
	q := decimal.NewFromInt(1).Sub(p)

	raw := payout.Mul(p).Sub(q).Div(payout)

	if raw.IsNegative() {
		return 0, nil
	}

	capped := decimal.Min(raw, decimal.NewFromFloat(MaxKellyFraction))
	return capped.Round(resultPlaces).InexactFloat64(), nil
}

// RawKellyFraction returns the unclamped Kelly fraction, used for reporting only
func RawKellyFraction(prob float64, american int) (float64, error) {
	payout, err := payoutDecimal(american)
	if err != nil {
		return 0, err
	}

	p := decimal.NewFromFloat(prob)
	q := decimal.NewFromInt(1).Sub(p)

	return payout.Mul(p).Sub(q).Div(payout).InexactFloat64(), nil
}
