package models

import (
	"fmt"
	"math"
	"time"
)

// probabilitySumTolerance bounds how far home+away may drift from 1
const probabilitySumTolerance = 0.02

// Prediction is the forecasting model's output for one event. It is opaque input;
// the engine never recomputes it.
type Prediction struct {
	EventID            string    `json:"event_id"`
	HomeWinProbability float64   `json:"home_win_probability"`
	AwayWinProbability float64   `json:"away_win_probability"`
	PredictedTotal     float64   `json:"predicted_total"`
	Confidence         float64   `json:"confidence"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// Validate enforces the collaborator contract
func (p Prediction) Validate() error {
	if p.HomeWinProbability < 0 || p.HomeWinProbability > 1 ||
		p.AwayWinProbability < 0 || p.AwayWinProbability > 1 {
		return fmt.Errorf("%w: win probabilities must be within [0,1]", ErrInvalidPrediction)
	}

	sum := p.HomeWinProbability + p.AwayWinProbability
	if math.Abs(sum-1) > probabilitySumTolerance {
		return fmt.Errorf("%w: win probabilities sum to %.4f", ErrInvalidPrediction, sum)
	}

	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("%w: confidence %.4f outside [0,1]", ErrInvalidPrediction, p.Confidence)
	}

	return nil
}

// EventStatus is the lifecycle status reported by the information collaborator
type EventStatus string

const (
	StatusScheduled EventStatus = "scheduled"
	StatusLive      EventStatus = "live"
	StatusFinal     EventStatus = "final"
)

// IsTerminal reports whether no further evaluations should be computed
func (s EventStatus) IsTerminal() bool {
	return s == StatusFinal
}

// InformationState summarizes the facts about an event that govern grade stability
type InformationState struct {
	EventID          string      `json:"event_id"`
	SportKey         string      `json:"sport_key"`
	HomeTeam         string      `json:"home_team"`
	AwayTeam         string      `json:"away_team"`
	CommenceTime     time.Time   `json:"commence_time"`
	StarterConfirmed bool        `json:"starter_confirmed"`
	LineupPosted     bool        `json:"lineup_posted"`
	Status           EventStatus `json:"status"`
}
