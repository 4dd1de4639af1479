package models

import (
	"sort"
	"time"
)

// RawOdds represents a single vendor outcome price before it is folded into a MarketQuote
type RawOdds struct {
	EventID          string
	SportKey         string
	MarketKey        string
	BookKey          string
	OutcomeName      string
	Price            int // American odds
	VendorLastUpdate time.Time
	ReceivedAt       time.Time
}

// Event represents a sporting event
type Event struct {
	EventID      string
	SportKey     string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	EventStatus  EventStatus
}

// FetchResult contains both events and odds from a fetch operation
type FetchResult struct {
	Events []Event
	Odds   []RawOdds
}

// RateLimits contains rate limiting information
type RateLimits struct {
	RequestsRemaining int
	RequestsUsed      int
	ResetTime         time.Time
}

// FetchEventOddsOptions contains parameters for fetching a single event's odds
type FetchEventOddsOptions struct {
	Sport   string
	EventID string
	Regions []string
	Markets []string
}

// FoldMoneylines groups h2h outcome rows into one MarketQuote per book.
// Outcomes naming neither team are ignored; ObservedAt is the newest vendor update.
// Quotes are returned ordered by book key.
func FoldMoneylines(eventID string, odds []RawOdds, homeTeam, awayTeam string) []MarketQuote {
	byBook := make(map[string]*MarketQuote)
	order := make([]string, 0)

	for _, odd := range odds {
		if odd.MarketKey != string(MarketMoneyline) {
			continue
		}
		if odd.OutcomeName != homeTeam && odd.OutcomeName != awayTeam {
			continue
		}

		quote, ok := byBook[odd.BookKey]
		if !ok {
			quote = &MarketQuote{
				EventID: eventID,
				BookKey: odd.BookKey,
				Market:  MarketMoneyline,
			}
			byBook[odd.BookKey] = quote
			order = append(order, odd.BookKey)
		}

		if odd.OutcomeName == homeTeam {
			quote.HomeMoneyline = odd.Price
		} else {
			quote.AwayMoneyline = odd.Price
		}

		if odd.VendorLastUpdate.After(quote.ObservedAt) {
			quote.ObservedAt = odd.VendorLastUpdate
		}
	}

	sort.Strings(order)

	quotes := make([]MarketQuote, 0, len(order))
	for _, book := range order {
		quotes = append(quotes, *byBook[book])
	}
	return quotes
}
