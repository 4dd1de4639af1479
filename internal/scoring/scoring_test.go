package scoring_test

import (
	"math"
	"testing"

	"github.com/XavierBriggs/Delphi/internal/scoring"
	"github.com/XavierBriggs/Delphi/pkg/models"
)

func TestAssign_Examples(t *testing.T) {
	tests := []struct {
		w    float64
		want models.Grade
	}{
		{79.0, models.GradeAPlus},
		{78.5, models.GradeAPlus},
		{76.0, models.GradeA},
		{68.3, models.GradeB},
		{44.0, models.GradeD},
		{43.99, models.GradeF},
		{30.0, models.GradeF},
	}

	for _, tt := range tests {
		got := scoring.DefaultGradeTable.Assign(tt.w)
		if got != tt.want {
			t.Errorf("Assign(%.2f) = %s, want %s", tt.w, got, tt.want)
		}
	}
}

func TestAssign_EveryBandBoundary(t *testing.T) {
	grades := models.AllGrades()

	for i, g := range grades[:len(grades)-1] {
		floor := scoring.DefaultGradeTable.Floor(g)

		if got := scoring.DefaultGradeTable.Assign(floor); got != g {
			t.Errorf("Assign(floor of %s = %.1f) = %s", g, floor, got)
		}

		below := scoring.DefaultGradeTable.Assign(floor - 0.01)
		if below != grades[i+1] {
			t.Errorf("Assign(just below %s) = %s, want %s", g, below, grades[i+1])
		}
	}
}

func TestDefaultWeights_SumToOne(t *testing.T) {
	var sum float64
	for _, w := range scoring.DefaultWeights {
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("weights sum to %f", sum)
	}

	if scoring.DefaultWeights[models.FactorMarket] <= scoring.DefaultWeights[models.FactorOffensive] {
		t.Error("market factor should carry the highest weight")
	}
}

func TestWeightedScore_Bounds(t *testing.T) {
	low := models.BandedFactorSet{}
	high := models.BandedFactorSet{}
	for _, f := range models.FactorTypes() {
		low[f] = scoring.MinScore
		high[f] = scoring.MaxScore
	}

	if w := scoring.DefaultWeights.WeightedScore(low); w != 30.0 {
		t.Errorf("expected W=30 for all-minimum scores, got %f", w)
	}
	if w := scoring.DefaultWeights.WeightedScore(high); w != 100.0 {
		t.Errorf("expected W=100 for all-maximum scores, got %f", w)
	}
}

func TestBand_Monotonic(t *testing.T) {
	scorer := scoring.NewFactorScorer(nil)

	for _, factor := range models.FactorTypes() {
		prev := math.Inf(-1)
		for v := -2.0; v <= 100; v += 0.5 {
			center := scorer.Band(factor, v)
			if center < prev {
				t.Fatalf("%s band not monotonic at %.1f: %f < %f", factor, v, center, prev)
			}
			prev = center
		}
	}
}

func TestBand_MarketInefficiency(t *testing.T) {
	scorer := scoring.NewFactorScorer(nil)

	tests := []struct {
		edgePct float64
		want    float64
	}{
		{-3.0, 35},
		{0.5, 50},
		{2.5, 72},
		{7.9, 96},
	}

	for _, tt := range tests {
		if got := scorer.Band(models.FactorMarket, tt.edgePct); got != tt.want {
			t.Errorf("Band(market, %.1f) = %f, want %f", tt.edgePct, got, tt.want)
		}
	}
}

func TestScore_ClampsAndAppliesJitter(t *testing.T) {
	scorer := scoring.NewFactorScorer(nil)

	raw := models.FactorSet{
		OffensiveProduction: 99,
		PitchingMatchup:     1,
		SituationalEdge:     50,
		Momentum:            50,
		MarketInefficiency:  8,
		SystemConfidence:    90,
	}

	jitter := map[models.FactorType]float64{
		models.FactorOffensive:   50, // clamped to +3
		models.FactorPitching:    -3,
		models.FactorSituational: 1.5,
	}

	banded := scorer.Score(raw, jitter)

	if got := banded[models.FactorOffensive]; got != 93 {
		t.Errorf("offensive = %f, want 93 (90 + capped jitter)", got)
	}
	if got := banded[models.FactorPitching]; got != 35 {
		t.Errorf("pitching = %f, want 35", got)
	}
	if got := banded[models.FactorSituational]; got != 59.5 {
		t.Errorf("situational = %f, want 59.5", got)
	}

	for factor, score := range banded {
		if score < scoring.MinScore || score > scoring.MaxScore {
			t.Errorf("%s score %f outside [30,100]", factor, score)
		}
	}
}

func TestHashJitter_DeterministicAndBounded(t *testing.T) {
	src := scoring.HashJitter{}

	first := src.Draw("evt_1", "fp_a", models.SideHome)
	second := src.Draw("evt_1", "fp_a", models.SideHome)

	for _, factor := range models.FactorTypes() {
		if first[factor] != second[factor] {
			t.Errorf("%s jitter not deterministic: %f vs %f", factor, first[factor], second[factor])
		}
		if math.Abs(first[factor]) > scoring.MaxJitter {
			t.Errorf("%s jitter %f exceeds bound", factor, first[factor])
		}
	}

	other := src.Draw("evt_1", "fp_b", models.SideHome)
	same := true
	for _, factor := range models.FactorTypes() {
		if other[factor] != first[factor] {
			same = false
		}
	}
	if same {
		t.Error("expected a different fingerprint to draw different jitter")
	}
}

func TestDominant(t *testing.T) {
	banded := models.BandedFactorSet{
		models.FactorOffensive:   60,
		models.FactorPitching:    60,
		models.FactorSituational: 60,
		models.FactorMomentum:    60,
		models.FactorMarket:      60,
		models.FactorConfidence:  95,
	}

	// confidence 0.15*(95-30) = 9.75 beats market 0.25*(60-30) = 7.5
	if got := scoring.Dominant(banded, scoring.DefaultWeights); got != models.FactorConfidence {
		t.Errorf("expected confidence to dominate, got %s", got)
	}

	banded[models.FactorConfidence] = 60
	if got := scoring.Dominant(banded, scoring.DefaultWeights); got != models.FactorMarket {
		t.Errorf("expected market to dominate equal scores, got %s", got)
	}
}

func TestDistribution(t *testing.T) {
	dist := scoring.Distribution([]models.Grade{models.GradeA, models.GradeA, models.GradeF})

	if len(dist) != 12 {
		t.Errorf("expected 12 grade buckets, got %d", len(dist))
	}
	if dist[models.GradeA] != 2 || dist[models.GradeF] != 1 || dist[models.GradeB] != 0 {
		t.Errorf("unexpected distribution: %v", dist)
	}
}
