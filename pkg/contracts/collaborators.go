package contracts

import (
	"context"

	"github.com/XavierBriggs/Delphi/pkg/models"
)

// PredictionSource is the forecasting model collaborator.
// Implementations return models.ErrPredictionUnavailable when there is no output.
type PredictionSource interface {
	GetPrediction(ctx context.Context, eventID string) (*models.Prediction, error)
}

// QuoteSource supplies bookmaker quotes for an event.
// Implementations return models.ErrQuoteUnavailable when nothing is listed.
type QuoteSource interface {
	GetMarketQuotes(ctx context.Context, eventID string) ([]models.MarketQuote, error)
}

// InformationSource reports the facts that govern grade stability
type InformationSource interface {
	GetInformationState(ctx context.Context, eventID string) (*models.InformationState, error)
}

// FactorProvider supplies the raw analytic factors that are not derived from the market.
// It is optional; the builder uses neutral inputs when none is configured.
type FactorProvider interface {
	GetFactors(ctx context.Context, eventID string, side models.Side) (*models.FactorSet, error)
}

// EventLister enumerates events that should be kept warm
type EventLister interface {
	ListActiveEvents(ctx context.Context) ([]string, error)
}
