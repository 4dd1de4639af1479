package recommend

import (
	"fmt"
	"sort"

	"github.com/XavierBriggs/Delphi/internal/edge"
	"github.com/XavierBriggs/Delphi/internal/scoring"
	"github.com/XavierBriggs/Delphi/pkg/contracts"
	"github.com/XavierBriggs/Delphi/pkg/models"
	"github.com/XavierBriggs/Delphi/pkg/oddsmath"
)

// neutralFactor is used for any analytic factor no provider supplied
const neutralFactor = 50.0

// Input is everything the builder needs for one event. It is fully resolved;
// the builder performs no I/O.
type Input struct {
	EventID    string
	State      models.InformationState
	Prediction models.Prediction
	Quote      *models.MarketQuote
	Sport      contracts.SportModule

	// Factors holds provider-supplied raw factors per side (optional)
	Factors map[models.Side]models.FactorSet

	// Jitter is the memoized smoothing noise for this fingerprint
	Jitter map[models.Side]map[models.FactorType]float64
}

// Builder orchestrates edge, scoring and grading into ranked recommendations
type Builder struct {
	edges   *edge.Calculator
	scorer  *scoring.FactorScorer
	weights scoring.Weights
	grades  scoring.GradeTable
	minEdge float64
}

// NewBuilder creates a builder over the shared grade table
func NewBuilder(edgeConfig edge.Config) *Builder {
	return &Builder{
		edges:   edge.NewCalculator(edgeConfig),
		scorer:  scoring.NewFactorScorer(nil),
		weights: scoring.DefaultWeights,
		grades:  scoring.DefaultGradeTable,
		minEdge: edgeConfig.MinEdge,
	}
}

// Build returns the full spectrum of moneyline recommendations for the event,
// sorted by grade then edge. A nil quote yields an empty list.
func (b *Builder) Build(in Input) ([]models.Recommendation, error) {
	if in.Quote == nil {
		return []models.Recommendation{}, nil
	}

	result, err := b.edges.Calculate(in.Prediction, *in.Quote, in.Sport.GetProbabilityBounds())
	if err != nil {
		return nil, fmt.Errorf("calculate edge: %w", err)
	}

	recs := make([]models.Recommendation, 0, len(result.Sides))

	for _, side := range result.Sides {
		rec, err := b.buildSide(in, side)
		if err != nil {
			return nil, fmt.Errorf("build %s side: %w", side.Side, err)
		}
		recs = append(recs, rec)
	}

	Sort(recs)
	return recs, nil
}

// Filter keeps the recommendations whose edge clears the candidate floor.
// Grades are untouched, so the filtered view is always a subset of the full spectrum.
func (b *Builder) Filter(recs []models.Recommendation) []models.Recommendation {
	return FilterByEdge(recs, b.minEdge)
}

// FilterByEdge keeps recommendations with Edge >= minEdge
func FilterByEdge(recs []models.Recommendation, minEdge float64) []models.Recommendation {
	out := make([]models.Recommendation, 0, len(recs))
	for _, rec := range recs {
		if rec.Edge >= minEdge-1e-9 {
			out = append(out, rec)
		}
	}
	return out
}

// Sort orders by grade rank, then edge descending, then home before away
func Sort(recs []models.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Grade != recs[j].Grade {
			return recs[i].Grade.Rank() < recs[j].Grade.Rank()
		}
		if recs[i].Edge != recs[j].Edge {
			return recs[i].Edge > recs[j].Edge
		}
		return recs[i].Selection.Side == models.SideHome && recs[j].Selection.Side != models.SideHome
	})
}

// RawFactors assembles the six raw inputs for one side. Market inefficiency comes
// from the anchored edge in percent, system confidence from the prediction.
func RawFactors(provided *models.FactorSet, sideEdge edge.SideEdge, pred models.Prediction) models.FactorSet {
	raw := models.FactorSet{
		OffensiveProduction: neutralFactor,
		PitchingMatchup:     neutralFactor,
		SituationalEdge:     neutralFactor,
		Momentum:            neutralFactor,
	}

	if provided != nil {
		raw.OffensiveProduction = provided.OffensiveProduction
		raw.PitchingMatchup = provided.PitchingMatchup
		raw.SituationalEdge = provided.SituationalEdge
		raw.Momentum = provided.Momentum
	}

	raw.MarketInefficiency = sideEdge.Edge * 100
	raw.SystemConfidence = pred.Confidence * 100

	return raw
}

func (b *Builder) buildSide(in Input, side edge.SideEdge) (models.Recommendation, error) {
	var provided *models.FactorSet
	if f, ok := in.Factors[side.Side]; ok {
		provided = &f
	}

	raw := RawFactors(provided, side, in.Prediction)
	banded := b.scorer.Score(raw, in.Jitter[side.Side])
	weighted := b.weights.WeightedScore(banded)
	grade := b.grades.Assign(weighted)

	ev, err := oddsmath.ExpectedValuePercent(side.PredictedProbability, side.Odds)
	if err != nil {
		return models.Recommendation{}, fmt.Errorf("expected value: %w", err)
	}

	kelly, err := oddsmath.KellyFraction(side.PredictedProbability, side.Odds)
	if err != nil {
		return models.Recommendation{}, fmt.Errorf("kelly fraction: %w", err)
	}

	decimalOdds, err := oddsmath.AmericanToDecimal(side.Odds)
	if err != nil {
		return models.Recommendation{}, fmt.Errorf("decimal odds: %w", err)
	}

	// the model's own price for the side, after anchoring
	fairOdds, err := oddsmath.ProbabilityToAmerican(side.PredictedProbability)
	if err != nil {
		return models.Recommendation{}, fmt.Errorf("fair odds: %w", err)
	}

	team := in.State.HomeTeam
	if side.Side == models.SideAway {
		team = in.State.AwayTeam
	}

	rec := models.Recommendation{
		EventID: in.EventID,
		Selection: models.Selection{
			Team:   team,
			Side:   side.Side,
			Market: models.MarketMoneyline,
		},
		BookKey:                 in.Quote.BookKey,
		Odds:                    side.Odds,
		DecimalOdds:             decimalOdds,
		FairOdds:                fairOdds,
		ImpliedProbability:      side.ImpliedProbability,
		PredictedProbability:    side.PredictedProbability,
		RawPredictedProbability: side.RawPredictedProbability,
		Edge:                    side.Edge,
		Grade:                   grade,
		WeightedScore:           weighted,
		Factors:                 banded,
		Confidence:              in.Prediction.Confidence,
		ExpectedValue:           ev,
		KellyFraction:           kelly,
	}
	rec.Reasoning = Reasoning(rec, side, scoring.Dominant(banded, b.weights), in.State, in.Sport)

	return rec, nil
}
