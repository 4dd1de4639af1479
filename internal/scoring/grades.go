package scoring

import (
	"math"

	"github.com/XavierBriggs/Delphi/pkg/models"
)

// Weights blends banded factor scores into a single weighted average.
// Market is weighted highest because it reflects realized edge.
type Weights map[models.FactorType]float64

// DefaultWeights sum to 1.0
var DefaultWeights = Weights{
	models.FactorOffensive:   0.15,
	models.FactorPitching:    0.15,
	models.FactorSituational: 0.15,
	models.FactorMomentum:    0.15,
	models.FactorMarket:      0.25,
	models.FactorConfidence:  0.15,
}

// WeightedScore returns W ∈ [30,100], rounded to 6 places so that threshold
// comparisons are not at the mercy of float summation order
func (w Weights) WeightedScore(banded models.BandedFactorSet) float64 {
	var total float64
	for _, factor := range models.FactorTypes() {
		total += w[factor] * banded[factor]
	}
	return math.Round(total*1e6) / 1e6
}

// Threshold assigns Grade to every W at or above Min
type Threshold struct {
	Min   float64
	Grade models.Grade
}

// GradeTable is an ordered, descending threshold table
type GradeTable []Threshold

// DefaultGradeTable is calibrated so a ~30 game slate yields roughly
// 1-2 A+, 2-3 A, 2-3 A-, 4-5 B+, 6-7 B, 4-5 B-, 3-4 C+, 3-4 C, 2-3 C-, 1-2 D+, 0-1 D, 0 F.
// Every grading call site uses this one table.
var DefaultGradeTable = GradeTable{
	{Min: 78.5, Grade: models.GradeAPlus},
	{Min: 76.0, Grade: models.GradeA},
	{Min: 73.5, Grade: models.GradeAMinus},
	{Min: 70.0, Grade: models.GradeBPlus},
	{Min: 66.0, Grade: models.GradeB},
	{Min: 62.0, Grade: models.GradeBMinus},
	{Min: 58.0, Grade: models.GradeCPlus},
	{Min: 54.0, Grade: models.GradeC},
	{Min: 50.0, Grade: models.GradeCMinus},
	{Min: 47.0, Grade: models.GradeDPlus},
	{Min: 44.0, Grade: models.GradeD},
}

// Assign maps a weighted average to its grade; anything under the last threshold is F
func (t GradeTable) Assign(w float64) models.Grade {
	for _, threshold := range t {
		if w >= threshold.Min {
			return threshold.Grade
		}
	}
	return models.GradeF
}

// Floor returns the minimum W for a grade (F returns MinScore)
func (t GradeTable) Floor(g models.Grade) float64 {
	for _, threshold := range t {
		if threshold.Grade == g {
			return threshold.Min
		}
	}
	return MinScore
}

// Distribution counts grades, including zero counts for every grade
func Distribution(grades []models.Grade) map[models.Grade]int {
	dist := make(map[models.Grade]int, len(models.AllGrades()))
	for _, g := range models.AllGrades() {
		dist[g] = 0
	}
	for _, g := range grades {
		dist[g]++
	}
	return dist
}
