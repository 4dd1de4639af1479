package stability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/XavierBriggs/Delphi/internal/edge"
	"github.com/XavierBriggs/Delphi/internal/fingerprint"
	"github.com/XavierBriggs/Delphi/internal/recommend"
	"github.com/XavierBriggs/Delphi/internal/registry"
	"github.com/XavierBriggs/Delphi/internal/scoring"
	"github.com/XavierBriggs/Delphi/pkg/contracts"
	"github.com/XavierBriggs/Delphi/pkg/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ClosedPolicy decides what readers receive once an event is final
type ClosedPolicy string

const (
	// ClosedPolicyHistorical serves the last entry flagged as historical
	ClosedPolicyHistorical ClosedPolicy = "historical"

	// ClosedPolicyReject returns an empty evaluation with models.ErrEventClosed
	ClosedPolicyReject ClosedPolicy = "reject"
)

// ParseClosedPolicy parses a policy name; empty means historical
func ParseClosedPolicy(s string) (ClosedPolicy, error) {
	switch ClosedPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ClosedPolicyHistorical:
		return ClosedPolicyHistorical, nil
	case ClosedPolicyReject:
		return ClosedPolicyReject, nil
	}
	return "", fmt.Errorf("unknown closed policy %q", s)
}

// ErrEngineClosed is returned by every call after Close
var ErrEngineClosed = errors.New("stability engine closed")

const (
	DefaultRecomputeTimeout = 5 * time.Second
	DefaultComputeDeadline  = 30 * time.Second
)

// Config controls engine behavior
type Config struct {
	// RecomputeTimeout bounds how long a reader waits on an in-flight recompute
	// before being served the last stable entry
	RecomputeTimeout time.Duration

	// ComputeDeadline bounds the recompute itself, independent of any reader
	ComputeDeadline time.Duration

	ClosedPolicy ClosedPolicy
	Edge         edge.Config
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		RecomputeTimeout: DefaultRecomputeTimeout,
		ComputeDeadline:  DefaultComputeDeadline,
		ClosedPolicy:     ClosedPolicyHistorical,
		Edge:             edge.DefaultConfig(),
	}
}

// Deps are the engine's collaborators. Factors, Recorder, Observer, Jitter and
// Clock are optional.
type Deps struct {
	Sports      *registry.SportRegistry
	Predictions contracts.PredictionSource
	Quotes      contracts.QuoteSource
	Information contracts.InformationSource
	Factors     contracts.FactorProvider
	Store       Store
	Recorder    Recorder
	Observer    Observer
	Jitter      scoring.JitterSource
	Logger      zerolog.Logger
	Clock       func() time.Time
}

// Engine serves graded recommendations that only change when the event's
// fingerprint changes. Each event moves Uninitialized → Stable → Terminal.
type Engine struct {
	cfg Config

	sports      *registry.SportRegistry
	predictions contracts.PredictionSource
	quotes      contracts.QuoteSource
	information contracts.InformationSource
	factors     contracts.FactorProvider
	store       Store
	recorder    Recorder
	observer    Observer
	jitter      scoring.JitterSource
	builder     *recommend.Builder
	logger      zerolog.Logger
	now         func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	stable   map[string]*models.GradeCacheEntry
	closed   map[string]bool
	shutdown bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates an engine instance
func NewEngine(cfg Config, deps Deps) (*Engine, error) {
	if deps.Sports == nil || deps.Sports.Count() == 0 {
		return nil, fmt.Errorf("stability engine requires at least one sport module")
	}
	if deps.Predictions == nil || deps.Quotes == nil || deps.Information == nil {
		return nil, fmt.Errorf("stability engine requires prediction, quote and information sources")
	}

	if cfg.RecomputeTimeout <= 0 {
		cfg.RecomputeTimeout = DefaultRecomputeTimeout
	}
	if cfg.ComputeDeadline <= 0 {
		cfg.ComputeDeadline = DefaultComputeDeadline
	}
	if cfg.ClosedPolicy == "" {
		cfg.ClosedPolicy = ClosedPolicyHistorical
	}
	if cfg.Edge == (edge.Config{}) {
		cfg.Edge = edge.DefaultConfig()
	}

	if deps.Store == nil {
		deps.Store = NewMemoryStore()
	}
	if deps.Observer == nil {
		deps.Observer = noopObserver{}
	}
	if deps.Jitter == nil {
		deps.Jitter = scoring.HashJitter{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Engine{
		cfg:         cfg,
		sports:      deps.Sports,
		predictions: deps.Predictions,
		quotes:      deps.Quotes,
		information: deps.Information,
		factors:     deps.Factors,
		store:       deps.Store,
		recorder:    deps.Recorder,
		observer:    deps.Observer,
		jitter:      deps.Jitter,
		builder:     recommend.NewBuilder(cfg.Edge),
		logger:      deps.Logger.With().Str("component", "stability").Logger(),
		now:         deps.Clock,
		stable:      make(map[string]*models.GradeCacheEntry),
		closed:      make(map[string]bool),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Evaluate returns the event's candidate recommendations (edge ≥ MinEdge)
func (e *Engine) Evaluate(ctx context.Context, eventID string) (*models.Evaluation, error) {
	return e.evaluate(ctx, eventID, false, false)
}

// EvaluateFullSpectrum returns every side that could be priced, graded with the
// same table as Evaluate
func (e *Engine) EvaluateFullSpectrum(ctx context.Context, eventID string) (*models.Evaluation, error) {
	return e.evaluate(ctx, eventID, true, false)
}

// Invalidate forces a recompute for the event's current fingerprint and
// overwrites the stored entry. Memoized jitter for that fingerprint is kept.
func (e *Engine) Invalidate(ctx context.Context, eventID string) (*models.Evaluation, error) {
	return e.evaluate(ctx, eventID, true, true)
}

// MarkClosed moves the event to Terminal. The last entry is kept, flagged terminal.
func (e *Engine) MarkClosed(ctx context.Context, eventID string) error {
	if e.isShutdown() {
		return ErrEngineClosed
	}

	e.mu.Lock()
	alreadyClosed := e.closed[eventID]
	e.closed[eventID] = true
	e.mu.Unlock()

	if alreadyClosed {
		return nil
	}

	var errs []error

	if last := e.latestEntry(ctx, eventID); last != nil && !last.Terminal {
		terminal := *last
		terminal.Terminal = true

		if err := e.store.Put(ctx, &terminal); err != nil {
			errs = append(errs, fmt.Errorf("store terminal entry: %w", err))
		}
		e.promote(&terminal)
	}

	if e.recorder != nil {
		if err := e.recorder.MarkTerminal(ctx, eventID); err != nil {
			errs = append(errs, fmt.Errorf("record terminal: %w", err))
		}
	}

	e.logger.Info().Str("event_id", eventID).Msg("event closed")

	return errors.Join(errs...)
}

// IsClosed reports whether the event has reached Terminal
func (e *Engine) IsClosed(eventID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed[eventID]
}

// Prune drops in-process state for events whose latest entry was computed before
// cutoff and is terminal or expired. Returns the number of events pruned.
func (e *Engine) Prune(cutoff time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	pruned := 0
	for eventID, entry := range e.stable {
		if !entry.ComputedAt.Before(cutoff) {
			continue
		}
		expired := !entry.ExpiresAt.IsZero() && entry.ExpiresAt.Before(cutoff)
		if entry.Terminal || expired {
			delete(e.stable, eventID)
			delete(e.closed, eventID)
			pruned++
		}
	}
	return pruned
}

// Close waits for in-flight recomputes and rejects further calls
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.shutdown {
		e.mu.Unlock()
		return nil
	}
	e.shutdown = true
	e.mu.Unlock()

	e.wg.Wait()
	e.cancel()

	e.logger.Info().Msg("engine closed")
	return nil
}

func (e *Engine) evaluate(ctx context.Context, eventID string, full, force bool) (*models.Evaluation, error) {
	if e.isShutdown() {
		return nil, ErrEngineClosed
	}
	if eventID == "" {
		return nil, fmt.Errorf("evaluate: event id is required")
	}

	if e.IsClosed(eventID) {
		return e.serveClosed(ctx, eventID, "", full)
	}

	state, err := e.information.GetInformationState(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get information state for %s: %w", eventID, err)
	}
	if state.EventID == "" {
		state.EventID = eventID
	}

	sport, err := e.sports.Resolve(state.SportKey)
	if err != nil {
		return nil, fmt.Errorf("resolve sport for %s: %w", eventID, err)
	}
	if err := sport.ValidateState(*state); err != nil {
		return nil, fmt.Errorf("validate state for %s: %w", eventID, err)
	}

	if state.Status.IsTerminal() {
		e.mu.Lock()
		e.closed[eventID] = true
		e.mu.Unlock()
		return e.serveClosed(ctx, eventID, sport.GetSportKey(), full)
	}

	quote, err := e.selectQuote(ctx, eventID, sport)
	if err != nil {
		return nil, err
	}

	prev := e.latestEntry(ctx, eventID)

	fp, err := fingerprint.Compute(*state, quote, sport)
	if err != nil {
		return nil, fmt.Errorf("fingerprint %s: %w", eventID, err)
	}

	existing := e.lookup(ctx, eventID, fp.Token)

	if !force && existing != nil && fresh(existing, e.now()) {
		e.observer.CacheHit(sport.GetSportKey())
		e.promote(existing)
		return e.view(existing, full, false, true), nil
	}
	if !force {
		e.observer.CacheMiss(sport.GetSportKey())
	}

	job := computeJob{
		eventID:  eventID,
		state:    *state,
		quote:    quote,
		sport:    sport,
		print:    fp,
		existing: existing,
		previous: prev,
		force:    force,
	}

	entry, stale, err := e.recompute(ctx, job)
	if errors.Is(err, models.ErrPredictionUnavailable) {
		e.logger.Debug().Str("event_id", eventID).Msg("prediction unavailable")
		return &models.Evaluation{
			EventID:         eventID,
			Fingerprint:     fp.Token,
			Recommendations: []models.Recommendation{},
			ComputedAt:      e.now(),
		}, nil
	}
	if err != nil {
		return nil, err
	}

	return e.view(entry, full, false, stale), nil
}

type computeJob struct {
	eventID  string
	state    models.InformationState
	quote    *models.MarketQuote
	sport    contracts.SportModule
	print    fingerprint.Result
	existing *models.GradeCacheEntry
	previous *models.GradeCacheEntry
	force    bool
}

// recompute runs one single-flight computation per (event, fingerprint) and waits
// for it up to RecomputeTimeout. On timeout the previous stable entry is returned
// with stale=true; the computation keeps running and stores its result.
func (e *Engine) recompute(ctx context.Context, job computeJob) (*models.GradeCacheEntry, bool, error) {
	key := job.eventID + ":" + job.print.Token
	if job.force {
		key += ":invalidate"
	}

	ch := e.group.DoChan(key, func() (interface{}, error) {
		e.mu.Lock()
		if e.shutdown {
			e.mu.Unlock()
			return nil, ErrEngineClosed
		}
		e.wg.Add(1)
		e.mu.Unlock()
		defer e.wg.Done()

		computeCtx, cancel := context.WithTimeout(e.ctx, e.cfg.ComputeDeadline)
		defer cancel()

		return e.compute(computeCtx, job)
	})

	timer := time.NewTimer(e.cfg.RecomputeTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*models.GradeCacheEntry), false, nil

	case <-timer.C:
		e.observer.RecomputeTimedOut(job.sport.GetSportKey())
		e.logger.Warn().
			Err(models.ErrRecomputeTimeout).
			Str("event_id", job.eventID).
			Str("fingerprint", job.print.Token).
			Dur("timeout", e.cfg.RecomputeTimeout).
			Msg("serving last stable entry")

		if job.previous != nil {
			return job.previous, true, nil
		}
		return nil, false, fmt.Errorf("%s: %w", job.eventID, models.ErrRecomputeTimeout)

	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (e *Engine) compute(ctx context.Context, job computeJob) (*models.GradeCacheEntry, error) {
	start := e.now()

	pred, err := e.predictions.GetPrediction(ctx, job.eventID)
	if err != nil {
		return nil, fmt.Errorf("get prediction for %s: %w", job.eventID, err)
	}
	if err := pred.Validate(); err != nil {
		return nil, fmt.Errorf("prediction for %s: %w", job.eventID, err)
	}

	jitter := e.jitterFor(job)

	recs, err := e.builder.Build(recommend.Input{
		EventID:    job.eventID,
		State:      job.state,
		Prediction: *pred,
		Quote:      job.quote,
		Sport:      job.sport,
		Factors:    e.loadFactors(ctx, job.eventID),
		Jitter:     jitter,
	})
	if err != nil {
		return nil, fmt.Errorf("build recommendations for %s: %w", job.eventID, err)
	}

	// pre-game entries expire at first pitch; anything computed after that
	// is governed by the fingerprint alone
	expiresAt := job.state.CommenceTime
	if !start.Before(expiresAt) {
		expiresAt = time.Time{}
	}

	entry := &models.GradeCacheEntry{
		EventID:         job.eventID,
		Fingerprint:     job.print.Token,
		Parts:           job.print.Parts,
		Recommendations: recs,
		Jitter:          jitter,
		ComputationID:   uuid.NewString(),
		ComputedAt:      start,
		ExpiresAt:       expiresAt,
	}

	if err := e.store.Put(ctx, entry); err != nil {
		e.logger.Error().Err(err).Str("event_id", job.eventID).Msg("store entry failed")
	}
	e.promote(entry)

	changed := job.previous == nil || job.previous.Fingerprint != entry.Fingerprint
	if e.recorder != nil && (changed || job.force) {
		if err := e.recorder.Record(ctx, entry, job.previous); err != nil {
			e.logger.Error().Err(err).Str("event_id", job.eventID).Msg("record entry failed")
		}
	}

	elapsed := e.now().Sub(start)
	e.observer.Recomputed(job.sport.GetSportKey(), elapsed, recs)

	logEvent := e.logger.Info().
		Str("event_id", job.eventID).
		Str("fingerprint", entry.Fingerprint).
		Str("computation_id", entry.ComputationID).
		Int("recommendations", len(recs)).
		Dur("elapsed", elapsed)
	if len(recs) > 0 {
		logEvent = logEvent.Stringer("top_grade", recs[0].Grade)
	}
	logEvent.Msg("recomputed grades")

	return entry, nil
}

// jitterFor reuses noise memoized for this fingerprint, drawing only for a new one
func (e *Engine) jitterFor(job computeJob) map[models.Side]map[models.FactorType]float64 {
	if job.existing != nil && len(job.existing.Jitter) > 0 {
		return job.existing.Jitter
	}

	return map[models.Side]map[models.FactorType]float64{
		models.SideHome: e.jitter.Draw(job.eventID, job.print.Token, models.SideHome),
		models.SideAway: e.jitter.Draw(job.eventID, job.print.Token, models.SideAway),
	}
}

func (e *Engine) loadFactors(ctx context.Context, eventID string) map[models.Side]models.FactorSet {
	if e.factors == nil {
		return nil
	}

	out := make(map[models.Side]models.FactorSet, 2)
	for _, side := range []models.Side{models.SideHome, models.SideAway} {
		set, err := e.factors.GetFactors(ctx, eventID, side)
		if err != nil || set == nil {
			e.logger.Warn().Err(err).Str("event_id", eventID).Str("side", string(side)).Msg("factors unavailable, using neutral inputs")
			continue
		}
		out[side] = *set
	}
	return out
}

func (e *Engine) selectQuote(ctx context.Context, eventID string, sport contracts.SportModule) (*models.MarketQuote, error) {
	quotes, err := e.quotes.GetMarketQuotes(ctx, eventID)
	if errors.Is(err, models.ErrQuoteUnavailable) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get market quotes for %s: %w", eventID, err)
	}

	valid := make([]models.MarketQuote, 0, len(quotes))
	for _, q := range quotes {
		if err := sport.ValidateQuote(q); err != nil {
			e.logger.Debug().Err(err).Str("event_id", eventID).Str("book", q.BookKey).Msg("quote rejected")
			continue
		}
		valid = append(valid, q)
	}

	return recommend.SelectQuote(valid, sport.GetBookPreference()), nil
}

// lookup finds the entry for the fingerprint, in process first, then in the store
func (e *Engine) lookup(ctx context.Context, eventID, token string) *models.GradeCacheEntry {
	e.mu.RLock()
	entry := e.stable[eventID]
	e.mu.RUnlock()

	if entry != nil && entry.Fingerprint == token {
		return entry
	}

	stored, err := e.store.Get(ctx, eventID, token)
	if err != nil {
		if !errors.Is(err, models.ErrEntryNotFound) {
			e.logger.Warn().Err(err).Str("event_id", eventID).Msg("store lookup failed")
		}
		return nil
	}
	return stored
}

func (e *Engine) latestEntry(ctx context.Context, eventID string) *models.GradeCacheEntry {
	e.mu.RLock()
	entry := e.stable[eventID]
	e.mu.RUnlock()

	if entry != nil {
		return entry
	}

	stored, err := e.store.Latest(ctx, eventID)
	if err != nil {
		if !errors.Is(err, models.ErrEntryNotFound) {
			e.logger.Warn().Err(err).Str("event_id", eventID).Msg("store latest lookup failed")
		}
		return nil
	}
	return stored
}

func (e *Engine) promote(entry *models.GradeCacheEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if IsNewer(entry, e.stable[entry.EventID]) {
		e.stable[entry.EventID] = entry
	}
}

func (e *Engine) serveClosed(ctx context.Context, eventID, sportKey string, full bool) (*models.Evaluation, error) {
	e.observer.ClosedServed(sportKey, e.cfg.ClosedPolicy)

	if e.cfg.ClosedPolicy == ClosedPolicyReject {
		return &models.Evaluation{
			EventID:         eventID,
			Recommendations: []models.Recommendation{},
			Historical:      true,
		}, fmt.Errorf("%s: %w", eventID, models.ErrEventClosed)
	}

	last := e.latestEntry(ctx, eventID)
	if last == nil {
		return &models.Evaluation{
			EventID:         eventID,
			Recommendations: []models.Recommendation{},
			Historical:      true,
		}, nil
	}

	return e.view(last, full, true, true), nil
}

func (e *Engine) view(entry *models.GradeCacheEntry, full, historical, cached bool) *models.Evaluation {
	recs := make([]models.Recommendation, len(entry.Recommendations))
	copy(recs, entry.Recommendations)

	if !full {
		recs = e.builder.Filter(recs)
	}

	return &models.Evaluation{
		EventID:         entry.EventID,
		Fingerprint:     entry.Fingerprint,
		Recommendations: recs,
		ComputedAt:      entry.ComputedAt,
		Historical:      historical,
		Cached:          cached,
	}
}

func (e *Engine) isShutdown() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.shutdown
}

func fresh(entry *models.GradeCacheEntry, now time.Time) bool {
	return entry.ExpiresAt.IsZero() || now.Before(entry.ExpiresAt)
}
