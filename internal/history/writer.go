package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XavierBriggs/Delphi/internal/stability"
	"github.com/XavierBriggs/Delphi/pkg/models"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// StreamKey receives one message per grade change or close
const StreamKey = "grades.changed"

// Schema creates the grade history table
const Schema = `
CREATE TABLE IF NOT EXISTS grade_entries (
	id                     BIGSERIAL PRIMARY KEY,
	event_id               TEXT NOT NULL,
	fingerprint            TEXT NOT NULL,
	computation_id         UUID NOT NULL,
	side                   TEXT NOT NULL,
	team                   TEXT NOT NULL,
	book_key               TEXT NOT NULL,
	odds                   INT NOT NULL,
	implied_probability    DECIMAL NOT NULL,
	predicted_probability  DECIMAL NOT NULL,
	edge                   DECIMAL NOT NULL,
	grade                  TEXT NOT NULL,
	weighted_score         DECIMAL NOT NULL,
	expected_value         DECIMAL NOT NULL,
	kelly_fraction         DECIMAL NOT NULL,
	computed_at            TIMESTAMPTZ NOT NULL,
	is_latest              BOOLEAN NOT NULL DEFAULT true,
	terminal               BOOLEAN NOT NULL DEFAULT false
);
CREATE INDEX IF NOT EXISTS grade_entries_latest_idx ON grade_entries (event_id) WHERE is_latest;
`

// Writer records computed grades in Alexandria and publishes changes to a Redis Stream.
// Previous rows are superseded (is_latest = false), never updated in place otherwise.
type Writer struct {
	db     *sql.DB
	redis  *redis.Client // optional
	logger zerolog.Logger
}

var _ stability.Recorder = (*Writer)(nil)

// StreamMessage is published to StreamKey
type StreamMessage struct {
	Type                string                 `json:"type"` // "changed" or "closed"
	EventID             string                 `json:"event_id"`
	Fingerprint         string                 `json:"fingerprint,omitempty"`
	PreviousFingerprint string                 `json:"previous_fingerprint,omitempty"`
	ComputationID       string                 `json:"computation_id,omitempty"`
	Grades              map[models.Side]string `json:"grades,omitempty"`
	PreviousGrades      map[models.Side]string `json:"previous_grades,omitempty"`
	ComputedAt          time.Time              `json:"computed_at"`
}

// Row is one stored recommendation
type Row struct {
	EventID              string       `json:"event_id"`
	Fingerprint          string       `json:"fingerprint"`
	ComputationID        string       `json:"computation_id"`
	Side                 models.Side  `json:"side"`
	Team                 string       `json:"team"`
	BookKey              string       `json:"book_key"`
	Odds                 int          `json:"odds"`
	ImpliedProbability   float64      `json:"implied_probability"`
	PredictedProbability float64      `json:"predicted_probability"`
	Edge                 float64      `json:"edge"`
	Grade                models.Grade `json:"grade"`
	WeightedScore        float64      `json:"weighted_score"`
	ExpectedValue        float64      `json:"expected_value"`
	KellyFraction        float64      `json:"kelly_fraction"`
	ComputedAt           time.Time    `json:"computed_at"`
	IsLatest             bool         `json:"is_latest"`
	Terminal             bool         `json:"terminal"`
}

// NewWriter creates a history writer. redisClient may be nil to skip stream publishing.
func NewWriter(db *sql.DB, redisClient *redis.Client, logger zerolog.Logger) *Writer {
	return &Writer{
		db:     db,
		redis:  redisClient,
		logger: logger.With().Str("component", "history").Logger(),
	}
}

// EnsureSchema creates the history table if needed
func (w *Writer) EnsureSchema(ctx context.Context) error {
	if _, err := w.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create grade_entries: %w", err)
	}
	return nil
}

// Record supersedes the event's previous rows and inserts the new entry
func (w *Writer) Record(ctx context.Context, entry *models.GradeCacheEntry, previous *models.GradeCacheEntry) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Step 1: Update previous rows (set is_latest = false)
	if _, err := tx.ExecContext(ctx,
		`UPDATE grade_entries SET is_latest = false WHERE event_id = $1 AND is_latest = true`,
		entry.EventID,
	); err != nil {
		return fmt.Errorf("supersede previous grades: %w", err)
	}

	// Step 2: Insert new rows (with is_latest = true)
	if len(entry.Recommendations) > 0 {
		if err := w.insertEntry(ctx, tx, entry); err != nil {
			return fmt.Errorf("insert grades: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	// Step 3: Publish to Redis Stream (after successful DB write)
	msg := StreamMessage{
		Type:          "changed",
		EventID:       entry.EventID,
		Fingerprint:   entry.Fingerprint,
		ComputationID: entry.ComputationID,
		Grades:        gradesBySide(entry),
		ComputedAt:    entry.ComputedAt,
	}
	if previous != nil {
		msg.PreviousFingerprint = previous.Fingerprint
		msg.PreviousGrades = gradesBySide(previous)
	}

	if err := w.publish(ctx, msg); err != nil {
		// Log but don't fail - DB is source of truth
		w.logger.Warn().Err(err).Str("event_id", entry.EventID).Msg("publish grade change failed")
	}

	return nil
}

// MarkTerminal flags the event's latest rows as terminal
func (w *Writer) MarkTerminal(ctx context.Context, eventID string) error {
	if _, err := w.db.ExecContext(ctx,
		`UPDATE grade_entries SET terminal = true WHERE event_id = $1 AND is_latest = true`,
		eventID,
	); err != nil {
		return fmt.Errorf("mark terminal: %w", err)
	}

	msg := StreamMessage{Type: "closed", EventID: eventID, ComputedAt: time.Now().UTC()}
	if err := w.publish(ctx, msg); err != nil {
		w.logger.Warn().Err(err).Str("event_id", eventID).Msg("publish close failed")
	}

	return nil
}

// History returns every stored row for the event, newest first
func (w *Writer) History(ctx context.Context, eventID string, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT event_id, fingerprint, computation_id, side, team, book_key, odds,
		       implied_probability, predicted_probability, edge, grade, weighted_score,
		       expected_value, kelly_fraction, computed_at, is_latest, terminal
		FROM grade_entries
		WHERE event_id = $1
		ORDER BY computed_at DESC, side ASC
		LIMIT $2
	`

	rows, err := w.db.QueryContext(ctx, query, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("query grade history: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r     Row
			side  string
			grade string
		)
		if err := rows.Scan(
			&r.EventID, &r.Fingerprint, &r.ComputationID, &side, &r.Team, &r.BookKey, &r.Odds,
			&r.ImpliedProbability, &r.PredictedProbability, &r.Edge, &grade, &r.WeightedScore,
			&r.ExpectedValue, &r.KellyFraction, &r.ComputedAt, &r.IsLatest, &r.Terminal,
		); err != nil {
			return nil, fmt.Errorf("scan grade row: %w", err)
		}

		r.Side = models.Side(side)
		if r.Grade, err = models.ParseGrade(grade); err != nil {
			return nil, fmt.Errorf("scan grade row: %w", err)
		}

		out = append(out, r)
	}

	return out, rows.Err()
}

// insertEntry batch inserts one row per recommendation using UNNEST
func (w *Writer) insertEntry(ctx context.Context, tx *sql.Tx, entry *models.GradeCacheEntry) error {
	query := `
		INSERT INTO grade_entries (
			event_id, fingerprint, computation_id, side, team, book_key, odds,
			implied_probability, predicted_probability, edge, grade, weighted_score,
			expected_value, kelly_fraction, computed_at, is_latest
		)
		SELECT $1, $2, $3::uuid, side, team, book_key, odds,
		       implied, predicted, edge, grade, weighted,
		       ev, kelly, $4, true
		FROM UNNEST(
			$5::text[], $6::text[], $7::text[], $8::int[],
			$9::decimal[], $10::decimal[], $11::decimal[], $12::text[], $13::decimal[],
			$14::decimal[], $15::decimal[]
		) AS t(side, team, book_key, odds, implied, predicted, edge, grade, weighted, ev, kelly)
	`

	n := len(entry.Recommendations)
	sides := make([]string, n)
	teams := make([]string, n)
	books := make([]string, n)
	odds := make([]int64, n)
	implied := make([]float64, n)
	predicted := make([]float64, n)
	edges := make([]float64, n)
	grades := make([]string, n)
	weighted := make([]float64, n)
	evs := make([]float64, n)
	kellys := make([]float64, n)

	for i, rec := range entry.Recommendations {
		sides[i] = string(rec.Selection.Side)
		teams[i] = rec.Selection.Team
		books[i] = rec.BookKey
		odds[i] = int64(rec.Odds)
		implied[i] = rec.ImpliedProbability
		predicted[i] = rec.PredictedProbability
		edges[i] = rec.Edge
		grades[i] = rec.Grade.String()
		weighted[i] = rec.WeightedScore
		evs[i] = rec.ExpectedValue
		kellys[i] = rec.KellyFraction
	}

	_, err := tx.ExecContext(ctx, query,
		entry.EventID, entry.Fingerprint, entry.ComputationID, entry.ComputedAt,
		pq.Array(sides), pq.Array(teams), pq.Array(books), pq.Array(odds),
		pq.Array(implied), pq.Array(predicted), pq.Array(edges), pq.Array(grades), pq.Array(weighted),
		pq.Array(evs), pq.Array(kellys),
	)

	return err
}

func (w *Writer) publish(ctx context.Context, msg StreamMessage) error {
	if w.redis == nil {
		return nil
	}

	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal stream message: %w", err)
	}

	return w.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		Values: map[string]interface{}{
			"data": msgJSON,
		},
	}).Err()
}

func gradesBySide(entry *models.GradeCacheEntry) map[models.Side]string {
	out := make(map[models.Side]string, len(entry.Recommendations))
	for _, rec := range entry.Recommendations {
		out[rec.Selection.Side] = rec.Grade.String()
	}
	return out
}
