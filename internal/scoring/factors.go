package scoring

import (
	"math"

	"github.com/XavierBriggs/Delphi/pkg/models"
)

const (
	// MinScore and MaxScore bound every banded factor score
	MinScore = 30.0
	MaxScore = 100.0
)

// Band maps every raw value at or above Min to a fixed Center score
type Band struct {
	Min    float64
	Center float64
}

// BandTable is a monotonic step function, bands ordered by descending Min.
// Values below the last band's Min fall into the last band.
type BandTable []Band

// Center returns the center score of the band containing value
func (t BandTable) Center(value float64) float64 {
	for _, band := range t {
		if value >= band.Min {
			return band.Center
		}
	}
	return t[len(t)-1].Center
}

// skillBands covers the 0-100 analytic factors
var skillBands = BandTable{
	{Min: 85, Center: 90},
	{Min: 70, Center: 78},
	{Min: 55, Center: 68},
	{Min: 40, Center: 58},
	{Min: 20, Center: 48},
	{Min: 0, Center: 38},
}

// DefaultBands is the audited band configuration per factor.
// Market inefficiency is measured in percent edge, system confidence on 0-100.
var DefaultBands = map[models.FactorType]BandTable{
	models.FactorOffensive:   skillBands,
	models.FactorPitching:    skillBands,
	models.FactorSituational: skillBands,
	models.FactorMomentum:    skillBands,
	models.FactorMarket: {
		{Min: 6.5, Center: 96},
		{Min: 5.0, Center: 90},
		{Min: 3.5, Center: 82},
		{Min: 2.0, Center: 72},
		{Min: 1.0, Center: 62},
		{Min: 0.0, Center: 50},
		{Min: math.Inf(-1), Center: 35},
	},
	models.FactorConfidence: {
		{Min: 85, Center: 92},
		{Min: 75, Center: 82},
		{Min: 65, Center: 72},
		{Min: 55, Center: 62},
		{Min: 40, Center: 52},
		{Min: 0, Center: 40},
	},
}

// FactorScorer maps raw factors to banded scores
type FactorScorer struct {
	bands map[models.FactorType]BandTable
}

// NewFactorScorer creates a scorer over the given band tables (nil uses DefaultBands)
func NewFactorScorer(bands map[models.FactorType]BandTable) *FactorScorer {
	if bands == nil {
		bands = DefaultBands
	}
	return &FactorScorer{bands: bands}
}

// Band returns the deterministic band center for a raw factor value
func (s *FactorScorer) Band(factor models.FactorType, value float64) float64 {
	table, ok := s.bands[factor]
	if !ok || len(table) == 0 {
		return MinScore
	}
	return table.Center(value)
}

// Score bands every factor and applies the supplied jitter.
// Jitter is never drawn here; it comes memoized from the caller.
func (s *FactorScorer) Score(raw models.FactorSet, jitter map[models.FactorType]float64) models.BandedFactorSet {
	banded := make(models.BandedFactorSet, len(models.FactorTypes()))

	for _, factor := range models.FactorTypes() {
		score := s.Band(factor, raw.Get(factor)) + clampJitter(jitter[factor])
		banded[factor] = clampScore(score)
	}

	return banded
}

// Dominant returns the factor contributing most to the weighted score above its
// neutral level. Ties resolve in FactorTypes order.
func Dominant(banded models.BandedFactorSet, weights Weights) models.FactorType {
	best := models.FactorTypes()[0]
	bestContribution := math.Inf(-1)

	for _, factor := range models.FactorTypes() {
		contribution := weights[factor] * (banded[factor] - MinScore)
		if contribution > bestContribution {
			best = factor
			bestContribution = contribution
		}
	}

	return best
}

func clampScore(score float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, score))
}

func clampJitter(j float64) float64 {
	return math.Max(-MaxJitter, math.Min(MaxJitter, j))
}
