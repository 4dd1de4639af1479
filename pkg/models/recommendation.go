package models

import "time"

// FactorType identifies one of the six analytic inputs that feed a grade
type FactorType string

const (
	FactorOffensive   FactorType = "offensive_production"
	FactorPitching    FactorType = "pitching_matchup"
	FactorSituational FactorType = "situational_edge"
	FactorMomentum    FactorType = "momentum"
	FactorMarket      FactorType = "market_inefficiency"
	FactorConfidence  FactorType = "system_confidence"
)

// FactorTypes lists every factor in a fixed order
func FactorTypes() []FactorType {
	return []FactorType{
		FactorOffensive,
		FactorPitching,
		FactorSituational,
		FactorMomentum,
		FactorMarket,
		FactorConfidence,
	}
}

// FactorSet holds six raw scores. MarketInefficiency is a percent edge (0-8),
// the rest are on a 0-100 scale.
type FactorSet struct {
	OffensiveProduction float64 `json:"offensive_production"`
	PitchingMatchup     float64 `json:"pitching_matchup"`
	SituationalEdge     float64 `json:"situational_edge"`
	Momentum            float64 `json:"momentum"`
	MarketInefficiency  float64 `json:"market_inefficiency"`
	SystemConfidence    float64 `json:"system_confidence"`
}

// Get returns the raw value for a factor
func (f FactorSet) Get(t FactorType) float64 {
	switch t {
	case FactorOffensive:
		return f.OffensiveProduction
	case FactorPitching:
		return f.PitchingMatchup
	case FactorSituational:
		return f.SituationalEdge
	case FactorMomentum:
		return f.Momentum
	case FactorMarket:
		return f.MarketInefficiency
	case FactorConfidence:
		return f.SystemConfidence
	}
	return 0
}

// BandedFactorSet holds the six banded scores, each within [30,100]
type BandedFactorSet map[FactorType]float64

// Side is the team side of a moneyline selection
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Selection identifies the team and market a recommendation is for
type Selection struct {
	Team   string     `json:"team"`
	Side   Side       `json:"side"`
	Market MarketType `json:"market"`
}

// Recommendation is one graded candidate bet.
// Edge is always PredictedProbability - ImpliedProbability.
type Recommendation struct {
	EventID                 string          `json:"event_id"`
	Selection               Selection       `json:"selection"`
	BookKey                 string          `json:"book_key"`
	Odds                    int             `json:"odds"`
	DecimalOdds             float64         `json:"decimal_odds"`
	FairOdds                int             `json:"fair_odds"`
	ImpliedProbability      float64         `json:"implied_probability"`
	PredictedProbability    float64         `json:"predicted_probability"`
	RawPredictedProbability float64         `json:"raw_predicted_probability"`
	Edge                    float64         `json:"edge"`
	Grade                   Grade           `json:"grade"`
	WeightedScore           float64         `json:"weighted_score"`
	Factors                 BandedFactorSet `json:"factors"`
	Confidence              float64         `json:"confidence"`
	ExpectedValue           float64         `json:"expected_value"`
	KellyFraction           float64         `json:"kelly_fraction"`
	Reasoning               string          `json:"reasoning"`
}

// GradeCacheEntry is the stored result for one (event, fingerprint) pair.
// Entries are superseded by newer fingerprints, never mutated.
type GradeCacheEntry struct {
	EventID         string                          `json:"event_id"`
	Fingerprint     string                          `json:"fingerprint"`
	Parts           FingerprintParts                `json:"parts"`
	Recommendations []Recommendation                `json:"recommendations"`
	Jitter          map[Side]map[FactorType]float64 `json:"jitter"`
	ComputationID   string                          `json:"computation_id"`
	ComputedAt      time.Time                       `json:"computed_at"`
	ExpiresAt       time.Time                       `json:"expires_at"`
	Terminal        bool                            `json:"terminal"`
}

// FingerprintParts are the inputs summarized by a fingerprint token
type FingerprintParts struct {
	StarterConfirmed bool        `json:"starter_confirmed"`
	LineupPosted     bool        `json:"lineup_posted"`
	Status           EventStatus `json:"status"`
	QuoteAvailable   bool        `json:"quote_available"`
	MarketBucket     int         `json:"market_bucket"`
	TimeBucket       string      `json:"time_bucket"`
}

// Evaluation is what readers receive from the engine
type Evaluation struct {
	EventID         string           `json:"event_id"`
	Fingerprint     string           `json:"fingerprint"`
	Recommendations []Recommendation `json:"recommendations"`
	ComputedAt      time.Time        `json:"computed_at"`
	Historical      bool             `json:"historical"`
	Cached          bool             `json:"cached"`
}
