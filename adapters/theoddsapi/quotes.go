package theoddsapi

import (
	"context"
	"fmt"
	"time"

	"github.com/XavierBriggs/Delphi/pkg/contracts"
	"github.com/XavierBriggs/Delphi/pkg/models"
)

// QuoteSource fetches moneyline quotes straight from The Odds API.
// Event state still comes from the information source so the sport key is known.
type QuoteSource struct {
	client  *Client
	info    contracts.InformationSource
	regions []string
}

var _ contracts.QuoteSource = (*QuoteSource)(nil)

// NewQuoteSource creates a vendor-backed quote source
func NewQuoteSource(client *Client, info contracts.InformationSource, regions []string) *QuoteSource {
	if len(regions) == 0 {
		regions = []string{"us"}
	}
	return &QuoteSource{
		client:  client,
		info:    info,
		regions: regions,
	}
}

// GetMarketQuotes returns one h2h quote per bookmaker
func (q *QuoteSource) GetMarketQuotes(ctx context.Context, eventID string) ([]models.MarketQuote, error) {
	state, err := q.info.GetInformationState(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("resolve event: %w", err)
	}

	result, err := q.client.FetchEventOdds(ctx, &models.FetchEventOddsOptions{
		Sport:   state.SportKey,
		EventID: eventID,
		Regions: q.regions,
		Markets: []string{string(models.MarketMoneyline)},
	})
	if err != nil {
		return nil, err
	}

	// Prefer the vendor's team names; they are what the outcomes are keyed by
	home, away := state.HomeTeam, state.AwayTeam
	for _, evt := range result.Events {
		if evt.EventID == eventID {
			home, away = evt.HomeTeam, evt.AwayTeam
		}
	}

	quotes := models.FoldMoneylines(eventID, result.Odds, home, away)
	if len(quotes) == 0 {
		return nil, fmt.Errorf("%s: %w", eventID, models.ErrQuoteUnavailable)
	}

	return quotes, nil
}

// EventLister discovers upcoming events for a set of sports from The Odds API
type EventLister struct {
	client *Client
	sports []string
	window time.Duration
	now    func() time.Time
}

var _ contracts.EventLister = (*EventLister)(nil)

// NewEventLister creates a lister covering the given sport keys
func NewEventLister(client *Client, sports []string, window time.Duration) *EventLister {
	return &EventLister{
		client: client,
		sports: sports,
		window: window,
		now:    time.Now,
	}
}

// ListActiveEvents returns events that are live or start within the window
func (l *EventLister) ListActiveEvents(ctx context.Context) ([]string, error) {
	cutoff := l.now().Add(l.window)

	var ids []string
	for _, sport := range l.sports {
		events, err := l.client.FetchEvents(ctx, sport)
		if err != nil {
			return nil, fmt.Errorf("list %s events: %w", sport, err)
		}

		for _, evt := range events {
			if evt.CommenceTime.Before(cutoff) {
				ids = append(ids, evt.EventID)
			}
		}
	}

	return ids, nil
}
