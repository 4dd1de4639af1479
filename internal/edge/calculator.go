package edge

import (
	"fmt"
	"math"

	"github.com/XavierBriggs/Delphi/pkg/contracts"
	"github.com/XavierBriggs/Delphi/pkg/models"
	"github.com/XavierBriggs/Delphi/pkg/oddsmath"
)

// edgeEpsilon absorbs float error when an edge sits exactly on the MinEdge boundary
const edgeEpsilon = 1e-9

// Config holds the market-anchoring caps
type Config struct {
	// MaxBelowMarket is how far under the implied probability a model may price a side
	MaxBelowMarket float64

	// MaxAboveMarket is how far over the implied probability a model may price a side
	MaxAboveMarket float64

	// MinEdge is the smallest clamped edge still surfaced as a candidate
	MinEdge float64
}

// DefaultConfig returns the production anchoring caps
func DefaultConfig() Config {
	return Config{
		MaxBelowMarket: 0.05,
		MaxAboveMarket: 0.08,
		MinEdge:        -0.05,
	}
}

// SideEdge is the anchored edge for one moneyline side
type SideEdge struct {
	Side                    models.Side
	Odds                    int
	ImpliedProbability      float64
	RawPredictedProbability float64
	PredictedProbability    float64
	RawEdge                 float64
	Edge                    float64
	Eligible                bool // Edge >= MinEdge
}

// Anchored reports whether the model probability had to be pulled toward the market
func (s SideEdge) Anchored() bool {
	return s.RawPredictedProbability != s.PredictedProbability
}

// Result holds the computed sides plus any side dropped for bad odds
type Result struct {
	Sides   []SideEdge
	Dropped map[models.Side]error
}

// Calculator turns a prediction and a moneyline quote into bounded edges
type Calculator struct {
	config Config
}

// NewCalculator creates a new edge calculator
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{config: cfg}
}

// Calculate computes the anchored edge for each moneyline side.
// A side with invalid odds is dropped on its own; the other side is still computed.
func (c *Calculator) Calculate(pred models.Prediction, quote models.MarketQuote, bounds contracts.ProbabilityBounds) (*Result, error) {
	if !quote.IsMoneyline() {
		return nil, fmt.Errorf("%w: edge calculation requires an h2h quote, got %s", models.ErrInvalidQuote, quote.Market)
	}

	result := &Result{
		Sides:   make([]SideEdge, 0, 2),
		Dropped: make(map[models.Side]error),
	}

	sides := []struct {
		side  models.Side
		odds  int
		model float64
	}{
		{models.SideHome, quote.HomeMoneyline, pred.HomeWinProbability},
		{models.SideAway, quote.AwayMoneyline, pred.AwayWinProbability},
	}

	for _, s := range sides {
		sideEdge, err := c.calculateSide(s.side, s.odds, s.model, bounds)
		if err != nil {
			result.Dropped[s.side] = err
			continue
		}
		result.Sides = append(result.Sides, sideEdge)
	}

	return result, nil
}

// calculateSide applies the market-anchoring rule:
// predicted is clamped to [implied - below, implied + above], then to the sport bounds,
// and the final edge is recomputed from the clamped value.
func (c *Calculator) calculateSide(side models.Side, odds int, model float64, bounds contracts.ProbabilityBounds) (SideEdge, error) {
	implied, err := oddsmath.ImpliedProbability(odds)
	if err != nil {
		return SideEdge{}, fmt.Errorf("%s side: %w", side, err)
	}

	predicted := math.Max(implied-c.config.MaxBelowMarket, math.Min(implied+c.config.MaxAboveMarket, model))
	predicted = bounds.Clamp(predicted)

	edge := predicted - implied

	return SideEdge{
		Side:                    side,
		Odds:                    odds,
		ImpliedProbability:      implied,
		RawPredictedProbability: model,
		PredictedProbability:    predicted,
		RawEdge:                 model - implied,
		Edge:                    edge,
		Eligible:                edge >= c.config.MinEdge-edgeEpsilon,
	}, nil
}
