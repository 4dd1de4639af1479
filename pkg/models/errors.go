package models

import "errors"

// Sentinel errors shared by the engine and its collaborators.
// All of them are recoverable; callers branch with errors.Is.
var (
	// ErrInvalidOdds is returned for a zero or malformed American price.
	// Callers drop the affected market side, not the whole event.
	ErrInvalidOdds = errors.New("invalid American odds")

	// ErrInvalidQuote is returned when a MarketQuote fails boundary validation
	ErrInvalidQuote = errors.New("invalid market quote")

	// ErrInvalidPrediction is returned when a Prediction fails boundary validation
	ErrInvalidPrediction = errors.New("invalid prediction")

	// ErrPredictionUnavailable means the forecasting collaborator has no output for the event
	ErrPredictionUnavailable = errors.New("prediction unavailable")

	// ErrQuoteUnavailable means no bookmaker has a usable quote for the event
	ErrQuoteUnavailable = errors.New("market quote unavailable")

	// ErrEventClosed is returned for evaluations requested on a terminal (final) event
	ErrEventClosed = errors.New("event closed")

	// ErrRecomputeTimeout means a single-flight wait exceeded its bound
	ErrRecomputeTimeout = errors.New("concurrent recompute timeout")

	// ErrEventNotFound means the information source does not know the event
	ErrEventNotFound = errors.New("event not found")

	// ErrUnsupportedSport means no sport module is registered for the event's sport key
	ErrUnsupportedSport = errors.New("unsupported sport")

	// ErrEntryNotFound is returned by stores when no entry matches
	ErrEntryNotFound = errors.New("grade cache entry not found")
)
