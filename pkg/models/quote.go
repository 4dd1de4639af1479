package models

import (
	"fmt"
	"time"
)

// MarketType tags the variant carried by a MarketQuote
type MarketType string

const (
	MarketMoneyline MarketType = "h2h"
	MarketSpread    MarketType = "spreads"
	MarketTotal     MarketType = "totals"
)

// MarketQuote is one bookmaker's immutable price snapshot for one event and one market.
// A newer quote supersedes an older one; neither is ever mutated.
type MarketQuote struct {
	EventID string     `json:"event_id"`
	BookKey string     `json:"book_key"`
	Market  MarketType `json:"market"`

	// h2h
	HomeMoneyline int `json:"home_moneyline,omitempty"`
	AwayMoneyline int `json:"away_moneyline,omitempty"`

	// spreads
	SpreadPoint     *float64 `json:"spread_point,omitempty"`
	SpreadHomePrice int      `json:"spread_home_price,omitempty"`
	SpreadAwayPrice int      `json:"spread_away_price,omitempty"`

	// totals
	TotalPoint *float64 `json:"total_point,omitempty"`
	OverPrice  int      `json:"over_price,omitempty"`
	UnderPrice int      `json:"under_price,omitempty"`

	ObservedAt time.Time `json:"observed_at"`
}

// Validate checks the quote at the boundary before it enters the engine
func (q MarketQuote) Validate() error {
	if q.EventID == "" {
		return fmt.Errorf("%w: missing event_id", ErrInvalidQuote)
	}
	if q.BookKey == "" {
		return fmt.Errorf("%w: missing book_key", ErrInvalidQuote)
	}

	switch q.Market {
	case MarketMoneyline:
		if q.HomeMoneyline == 0 && q.AwayMoneyline == 0 {
			return fmt.Errorf("%w: h2h quote has no prices", ErrInvalidQuote)
		}
		for _, price := range []int{q.HomeMoneyline, q.AwayMoneyline} {
			if price != 0 && price > -100 && price < 100 {
				return fmt.Errorf("%w: h2h price %d is between -100 and +100", ErrInvalidQuote, price)
			}
		}
	case MarketSpread:
		if q.SpreadPoint == nil {
			return fmt.Errorf("%w: spreads quote requires point value", ErrInvalidQuote)
		}
	case MarketTotal:
		if q.TotalPoint == nil {
			return fmt.Errorf("%w: totals quote requires point value", ErrInvalidQuote)
		}
	default:
		return fmt.Errorf("%w: unknown market %q", ErrInvalidQuote, q.Market)
	}

	return nil
}

// IsMoneyline reports whether the quote carries moneyline prices
func (q MarketQuote) IsMoneyline() bool {
	return q.Market == MarketMoneyline
}
