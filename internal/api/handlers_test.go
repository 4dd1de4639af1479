package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/XavierBriggs/Delphi/internal/history"
	"github.com/XavierBriggs/Delphi/internal/stability"
	"github.com/XavierBriggs/Delphi/pkg/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockGrades struct {
	eval        *models.Evaluation
	err         error
	invalidated []string
	full        bool
}

func (m *mockGrades) Evaluate(ctx context.Context, eventID string) (*models.Evaluation, error) {
	return m.result(eventID)
}

func (m *mockGrades) EvaluateFullSpectrum(ctx context.Context, eventID string) (*models.Evaluation, error) {
	m.full = true
	return m.result(eventID)
}

func (m *mockGrades) Invalidate(ctx context.Context, eventID string) (*models.Evaluation, error) {
	m.invalidated = append(m.invalidated, eventID)
	return m.result(eventID)
}

func (m *mockGrades) result(eventID string) (*models.Evaluation, error) {
	if m.err != nil {
		return nil, m.err
	}
	eval := *m.eval
	eval.EventID = eventID
	return &eval, nil
}

type mockHistory struct {
	rows  []history.Row
	limit int
}

func (m *mockHistory) History(ctx context.Context, eventID string, limit int) ([]history.Row, error) {
	m.limit = limit
	return m.rows, nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	return m.err
}

func sampleEvaluation() *models.Evaluation {
	return &models.Evaluation{
		Fingerprint: "3f9a1c",
		ComputedAt:  time.Date(2026, 6, 12, 13, 5, 0, 0, time.UTC),
		Cached:      true,
		Recommendations: []models.Recommendation{
			{
				Selection: models.Selection{Team: "Boston Red Sox", Side: models.SideAway, Market: models.MarketMoneyline},
				Odds:      194,
				Edge:      0.08,
				Grade:     models.GradeB,
			},
			{
				Selection: models.Selection{Team: "New York Yankees", Side: models.SideHome, Market: models.MarketMoneyline},
				Odds:      -240,
				Edge:      -0.05,
				Grade:     models.GradeC,
			},
		},
	}
}

func newTestServer(grades GradeService, hist HistoryReader, db Pinger) http.Handler {
	h := NewHandler(grades, hist, db, zerolog.Nop())
	return NewRouter(h, RouterOptions{})
}

func doRequest(t *testing.T, handler http.Handler, method, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(&mockGrades{eval: sampleEvaluation()}, nil, &mockPinger{})

	rec, body := doRequest(t, server, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "delphi", body["service"])
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	server := newTestServer(&mockGrades{eval: sampleEvaluation()}, nil, &mockPinger{err: errors.New("connection refused")})

	rec, body := doRequest(t, server, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "database unhealthy", body["message"])
}

func TestGetRecommendations(t *testing.T) {
	grades := &mockGrades{eval: sampleEvaluation()}
	server := newTestServer(grades, nil, nil)

	rec, body := doRequest(t, server, http.MethodGet, "/api/v1/events/evt_1/recommendations")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.Equal(t, "evt_1", body["event_id"])
	assert.Equal(t, true, body["cached"])

	recs := body["recommendations"].([]interface{})
	require.Len(t, recs, 2)
	first := recs[0].(map[string]interface{})
	assert.Equal(t, "B", first["grade"])
	assert.False(t, grades.full)
}

func TestGetRecommendations_MinEdge(t *testing.T) {
	server := newTestServer(&mockGrades{eval: sampleEvaluation()}, nil, nil)

	rec, body := doRequest(t, server, http.MethodGet, "/api/v1/events/evt_1/recommendations?min_edge=0.02")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["recommendations"].([]interface{}), 1)

	rec, _ = doRequest(t, server, http.MethodGet, "/api/v1/events/evt_1/recommendations?min_edge=lots")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetFullSpectrum(t *testing.T) {
	grades := &mockGrades{eval: sampleEvaluation()}
	server := newTestServer(grades, nil, nil)

	rec, _ := doRequest(t, server, http.MethodGet, "/api/v1/events/evt_1/recommendations/full")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, grades.full)
}

func TestInvalidate(t *testing.T) {
	grades := &mockGrades{eval: sampleEvaluation()}
	server := newTestServer(grades, nil, nil)

	rec, _ := doRequest(t, server, http.MethodPost, "/api/v1/events/evt_9/invalidate")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"evt_9"}, grades.invalidated)
}

func TestInvalidate_RateLimited(t *testing.T) {
	grades := &mockGrades{eval: sampleEvaluation()}
	h := NewHandler(grades, nil, nil, zerolog.Nop())
	router := NewRouter(h, RouterOptions{InvalidateLimit: 2})

	var codes []int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events/evt_9/invalidate", nil))
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Len(t, grades.invalidated, 2)

	// reads are not limited
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/evt_9/recommendations", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("get information state: %w", models.ErrEventNotFound), http.StatusNotFound},
		{"closed", fmt.Errorf("evt_1: %w", models.ErrEventClosed), http.StatusGone},
		{"unsupported sport", fmt.Errorf("resolve: %w", models.ErrUnsupportedSport), http.StatusUnprocessableEntity},
		{"invalid prediction", fmt.Errorf("compute: %w", models.ErrInvalidPrediction), http.StatusUnprocessableEntity},
		{"recompute timeout", fmt.Errorf("evt_1: %w", models.ErrRecomputeTimeout), http.StatusServiceUnavailable},
		{"shutting down", stability.ErrEngineClosed, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(&mockGrades{err: tt.err}, nil, nil)

			rec, body := doRequest(t, server, http.MethodGet, "/api/v1/events/evt_1/recommendations")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, float64(tt.status), body["code"])
		})
	}
}

func TestGetHistory(t *testing.T) {
	hist := &mockHistory{rows: []history.Row{
		{EventID: "evt_1", Fingerprint: "fp_b", Side: models.SideAway, Grade: models.GradeB, IsLatest: true},
		{EventID: "evt_1", Fingerprint: "fp_a", Side: models.SideAway, Grade: models.GradeBMinus},
	}}
	server := newTestServer(&mockGrades{eval: sampleEvaluation()}, hist, nil)

	rec, body := doRequest(t, server, http.MethodGet, "/api/v1/events/evt_1/history?limit=5000")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, 1000, hist.limit)

	rows := body["history"].([]interface{})
	assert.Equal(t, "B-", rows[1].(map[string]interface{})["grade"])
}

func TestGetHistory_NotConfigured(t *testing.T) {
	server := newTestServer(&mockGrades{eval: sampleEvaluation()}, nil, nil)

	rec, _ := doRequest(t, server, http.MethodGet, "/api/v1/events/evt_1/history")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestMetricsRoute(t *testing.T) {
	h := NewHandler(&mockGrades{eval: sampleEvaluation()}, nil, nil, zerolog.Nop())
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "delphi_up 1\n")
	})

	router := NewRouter(h, RouterOptions{Metrics: metrics})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "delphi_up")
}
