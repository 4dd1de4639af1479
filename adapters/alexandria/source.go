package alexandria

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/XavierBriggs/Delphi/pkg/contracts"
	"github.com/XavierBriggs/Delphi/pkg/models"
)

// Source reads predictions, quotes and event state from the Alexandria database.
// Mercury writes odds_raw and events; the model service writes predictions.
type Source struct {
	db *sql.DB

	// activeWindow bounds how far ahead ListActiveEvents looks
	activeWindow time.Duration
}

var (
	_ contracts.PredictionSource  = (*Source)(nil)
	_ contracts.QuoteSource       = (*Source)(nil)
	_ contracts.InformationSource = (*Source)(nil)
	_ contracts.EventLister       = (*Source)(nil)
)

// NewSource creates an Alexandria-backed source
func NewSource(db *sql.DB) *Source {
	return &Source{
		db:           db,
		activeWindow: 48 * time.Hour,
	}
}

// GetPrediction returns the newest model output for the event
func (s *Source) GetPrediction(ctx context.Context, eventID string) (*models.Prediction, error) {
	query := `
		SELECT event_id, home_win_probability, away_win_probability,
		       COALESCE(predicted_total, 0), confidence, generated_at
		FROM predictions
		WHERE event_id = $1
		ORDER BY generated_at DESC
		LIMIT 1
	`

	var p models.Prediction
	err := s.db.QueryRowContext(ctx, query, eventID).Scan(
		&p.EventID, &p.HomeWinProbability, &p.AwayWinProbability,
		&p.PredictedTotal, &p.Confidence, &p.GeneratedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", eventID, models.ErrPredictionUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("query prediction: %w", err)
	}

	return &p, nil
}

// GetMarketQuotes folds the latest h2h outcome rows into one quote per book
func (s *Source) GetMarketQuotes(ctx context.Context, eventID string) ([]models.MarketQuote, error) {
	query := `
		SELECT o.book_key, o.outcome_name, o.price, o.vendor_last_update,
		       e.home_team, e.away_team
		FROM odds_raw o
		JOIN events e ON e.event_id = o.event_id
		WHERE o.event_id = $1
		  AND o.market_key = 'h2h'
		  AND o.is_latest = true
		ORDER BY o.book_key
	`

	rows, err := s.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("query latest odds: %w", err)
	}
	defer rows.Close()

	var (
		odds               []models.RawOdds
		homeTeam, awayTeam string
	)

	for rows.Next() {
		odd := models.RawOdds{EventID: eventID, MarketKey: string(models.MarketMoneyline)}
		if err := rows.Scan(&odd.BookKey, &odd.OutcomeName, &odd.Price, &odd.VendorLastUpdate, &homeTeam, &awayTeam); err != nil {
			return nil, fmt.Errorf("scan odds row: %w", err)
		}
		odds = append(odds, odd)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	quotes := models.FoldMoneylines(eventID, odds, homeTeam, awayTeam)
	if len(quotes) == 0 {
		return nil, fmt.Errorf("%s: %w", eventID, models.ErrQuoteUnavailable)
	}

	return quotes, nil
}

// GetInformationState joins the event row with its milestone flags
func (s *Source) GetInformationState(ctx context.Context, eventID string) (*models.InformationState, error) {
	query := `
		SELECT e.event_id, e.sport_key, e.home_team, e.away_team, e.commence_time, e.event_status,
		       COALESCE(i.starter_confirmed, false), COALESCE(i.lineup_posted, false)
		FROM events e
		LEFT JOIN event_info i ON i.event_id = e.event_id
		WHERE e.event_id = $1
	`

	var (
		state  models.InformationState
		status string
	)
	err := s.db.QueryRowContext(ctx, query, eventID).Scan(
		&state.EventID, &state.SportKey, &state.HomeTeam, &state.AwayTeam, &state.CommenceTime, &status,
		&state.StarterConfirmed, &state.LineupPosted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", eventID, models.ErrEventNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query event state: %w", err)
	}

	state.Status = MapStatus(status)
	return &state, nil
}

// ListActiveEvents returns upcoming and live events starting within the active window
func (s *Source) ListActiveEvents(ctx context.Context) ([]string, error) {
	query := `
		SELECT event_id
		FROM events
		WHERE event_status IN ('upcoming', 'live')
		  AND commence_time < NOW() + $1::interval
		ORDER BY commence_time ASC
	`

	return s.queryIDs(ctx, query, fmt.Sprintf("%d seconds", int(s.activeWindow.Seconds())))
}

// ListFinishedEvents returns events completed since the given time
func (s *Source) ListFinishedEvents(ctx context.Context, since time.Time) ([]string, error) {
	query := `
		SELECT event_id
		FROM events
		WHERE event_status = 'completed'
		  AND commence_time > $1
		ORDER BY commence_time ASC
	`

	return s.queryIDs(ctx, query, since)
}

func (s *Source) queryIDs(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var eventID string
		if err := rows.Scan(&eventID); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ids = append(ids, eventID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return ids, nil
}

// MapStatus converts Alexandria's event_status to an EventStatus
func MapStatus(status string) models.EventStatus {
	switch status {
	case "live":
		return models.StatusLive
	case "completed", "final":
		return models.StatusFinal
	default:
		return models.StatusScheduled
	}
}
