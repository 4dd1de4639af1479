package fingerprint_test

import (
	"testing"
	"time"

	"github.com/XavierBriggs/Delphi/internal/fingerprint"
	"github.com/XavierBriggs/Delphi/pkg/models"
	"github.com/XavierBriggs/Delphi/sports/baseball_mlb"
)

var commence = time.Date(2026, 6, 12, 23, 5, 0, 0, time.UTC)

func baseState() models.InformationState {
	return models.InformationState{
		EventID:      "evt_1",
		SportKey:     "baseball_mlb",
		HomeTeam:     "New York Yankees",
		AwayTeam:     "Boston Red Sox",
		CommenceTime: commence,
		Status:       models.StatusScheduled,
	}
}

func quoteAt(home, away int, hoursBefore float64) *models.MarketQuote {
	return &models.MarketQuote{
		EventID:       "evt_1",
		BookKey:       "pinnacle",
		Market:        models.MarketMoneyline,
		HomeMoneyline: home,
		AwayMoneyline: away,
		ObservedAt:    commence.Add(-time.Duration(hoursBefore * float64(time.Hour))),
	}
}

func TestCompute_Deterministic(t *testing.T) {
	sport := baseball_mlb.NewModule()

	a, err := fingerprint.Compute(baseState(), quoteAt(-150, 130, 10), sport)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	b, err := fingerprint.Compute(baseState(), quoteAt(-150, 130, 10), sport)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if a.Token != b.Token {
		t.Errorf("tokens differ for identical inputs: %s vs %s", a.Token, b.Token)
	}
	if a.Parts.TimeBucket != "day_of" {
		t.Errorf("time bucket = %s, want day_of", a.Parts.TimeBucket)
	}
}

func TestCompute_MarketNoiseIsAbsorbed(t *testing.T) {
	sport := baseball_mlb.NewModule()

	first, err := fingerprint.Compute(baseState(), quoteAt(-157, 137, 10), sport)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	// every price pair stays inside the 0.58-0.60 fair home probability bucket
	for _, prices := range [][2]int{{-155, 135}, {-160, 140}, {-152, 132}} {
		moved, err := fingerprint.Compute(baseState(), quoteAt(prices[0], prices[1], 9), sport)
		if err != nil {
			t.Fatalf("Compute failed: %v", err)
		}
		if moved.Token != first.Token {
			t.Errorf("move to %v changed fingerprint", prices)
		}
	}
}

func TestCompute_MaterialMoveChangesToken(t *testing.T) {
	sport := baseball_mlb.NewModule()

	first, err := fingerprint.Compute(baseState(), quoteAt(-150, 130, 10), sport)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	moved, err := fingerprint.Compute(baseState(), quoteAt(-200, 170, 10), sport)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if moved.Token == first.Token {
		t.Error("material line move should change fingerprint")
	}
	if moved.Parts.MarketBucket != 32 {
		t.Errorf("market bucket = %d, want 32", moved.Parts.MarketBucket)
	}
}

func TestCompute_IndependentOfQuoteHistory(t *testing.T) {
	sport := baseball_mlb.NewModule()

	// a process that saw the earlier line and one that starts fresh on the
	// current line must agree
	var seen fingerprint.Result
	for _, prices := range [][2]int{{-150, 130}, {-145, 125}, {-160, 140}} {
		got, err := fingerprint.Compute(baseState(), quoteAt(prices[0], prices[1], 10), sport)
		if err != nil {
			t.Fatalf("Compute failed: %v", err)
		}
		seen = got
	}

	fresh, err := fingerprint.Compute(baseState(), quoteAt(-160, 140, 10), sport)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if seen.Token != fresh.Token {
		t.Errorf("token depends on history: %s vs %s", seen.Token, fresh.Token)
	}
}

func TestMarketBucket(t *testing.T) {
	tests := []struct {
		fair  float64
		width float64
		want  int
	}{
		{0.5, 0.02, 25},
		{0.5963, 0.02, 29},
		{0.6748, 0.025, 26},
		{0.5, 0, 25},
	}

	for _, tt := range tests {
		if got := fingerprint.MarketBucket(tt.fair, tt.width); got != tt.want {
			t.Errorf("MarketBucket(%.4f, %.3f) = %d, want %d", tt.fair, tt.width, got, tt.want)
		}
	}
}

func TestCompute_MilestonesChangeToken(t *testing.T) {
	sport := baseball_mlb.NewModule()
	quote := quoteAt(-150, 130, 10)

	base, err := fingerprint.Compute(baseState(), quote, sport)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	mutations := map[string]func(*models.InformationState){
		"starter confirmed": func(s *models.InformationState) { s.StarterConfirmed = true },
		"lineup posted":     func(s *models.InformationState) { s.LineupPosted = true },
		"went live":         func(s *models.InformationState) { s.Status = models.StatusLive },
	}

	for name, mutate := range mutations {
		state := baseState()
		mutate(&state)

		got, err := fingerprint.Compute(state, quote, sport)
		if err != nil {
			t.Fatalf("%s: Compute failed: %v", name, err)
		}
		if got.Token == base.Token {
			t.Errorf("%s did not change fingerprint", name)
		}
	}
}

func TestCompute_TimeBucketCrossing(t *testing.T) {
	sport := baseball_mlb.NewModule()

	day, err := fingerprint.Compute(baseState(), quoteAt(-150, 130, 7), sport)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	pregame, err := fingerprint.Compute(baseState(), quoteAt(-150, 130, 5), sport)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if day.Parts.TimeBucket != "day_of" || pregame.Parts.TimeBucket != "pregame" {
		t.Fatalf("unexpected buckets %s, %s", day.Parts.TimeBucket, pregame.Parts.TimeBucket)
	}
	if day.Token == pregame.Token {
		t.Error("crossing a time bucket should change fingerprint")
	}
}

func TestCompute_NoQuote(t *testing.T) {
	sport := baseball_mlb.NewModule()

	got, err := fingerprint.Compute(baseState(), nil, sport)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if got.Parts.QuoteAvailable {
		t.Error("expected QuoteAvailable=false")
	}

	quoted, err := fingerprint.Compute(baseState(), quoteAt(-150, 130, 10), sport)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if quoted.Token == got.Token {
		t.Error("first quote should change fingerprint")
	}
}

func TestTimeBucket(t *testing.T) {
	buckets := baseball_mlb.DefaultConfig().Fingerprint.TimeBuckets

	tests := []struct {
		hours float64
		want  string
	}{
		{48, "early"},
		{24, "day_of"},
		{6, "pregame"},
		{1.5, "imminent"},
		{0.25, "imminent"},
		{0, "started"},
		{20000, "early"},
	}

	for _, tt := range tests {
		if got := fingerprint.TimeBucket(buckets, tt.hours); got != tt.want {
			t.Errorf("TimeBucket(%.2f) = %s, want %s", tt.hours, got, tt.want)
		}
	}
}
