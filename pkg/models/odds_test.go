package models_test

import (
	"errors"
	"testing"
	"time"

	"github.com/XavierBriggs/Delphi/pkg/models"
	"github.com/XavierBriggs/Delphi/pkg/testutil"
)

func TestFoldMoneylines(t *testing.T) {
	later := testutil.NewTestOdd("evt_1", "draftkings", "Boston Red Sox", 125)
	later.VendorLastUpdate = later.VendorLastUpdate.Add(time.Minute)

	spread := testutil.NewTestOdd("evt_1", "pinnacle", "New York Yankees", -110)
	spread.MarketKey = string(models.MarketSpread)

	odds := []models.RawOdds{
		testutil.NewTestOdd("evt_1", "pinnacle", "New York Yankees", -150),
		testutil.NewTestOdd("evt_1", "pinnacle", "Boston Red Sox", 135),
		testutil.NewTestOdd("evt_1", "draftkings", "New York Yankees", -145),
		later,
		testutil.NewTestOdd("evt_1", "draftkings", "Draw", 900),
		spread,
	}

	quotes := models.FoldMoneylines("evt_1", odds, "New York Yankees", "Boston Red Sox")
	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(quotes))
	}

	dk := quotes[0]
	if dk.BookKey != "draftkings" || dk.HomeMoneyline != -145 || dk.AwayMoneyline != 125 {
		t.Errorf("unexpected draftkings quote: %+v", dk)
	}
	if !dk.ObservedAt.Equal(later.VendorLastUpdate) {
		t.Errorf("expected newest vendor update, got %v", dk.ObservedAt)
	}

	pin := quotes[1]
	if pin.BookKey != "pinnacle" || pin.HomeMoneyline != -150 || pin.AwayMoneyline != 135 {
		t.Errorf("unexpected pinnacle quote: %+v", pin)
	}

	for _, q := range quotes {
		if err := q.Validate(); err != nil {
			t.Errorf("%s: %v", q.BookKey, err)
		}
	}
}

func TestFoldMoneylines_OneSided(t *testing.T) {
	odds := []models.RawOdds{
		testutil.NewTestOdd("evt_1", "bovada", "New York Yankees", -150),
	}

	quotes := models.FoldMoneylines("evt_1", odds, "New York Yankees", "Boston Red Sox")
	if len(quotes) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(quotes))
	}
	if quotes[0].AwayMoneyline != 0 {
		t.Errorf("expected missing away price, got %d", quotes[0].AwayMoneyline)
	}
	// One listed side is still a usable quote; the missing side is dropped downstream
	if err := quotes[0].Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestMarketQuote_Validate_MoneylineRange(t *testing.T) {
	tests := []struct {
		name    string
		home    int
		away    int
		wantErr bool
	}{
		{"standard pair", -150, 130, false},
		{"even money", 100, -100, false},
		{"home inside the dead zone", 50, -120, true},
		{"away inside the dead zone", -130, -99, true},
		{"both missing", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := testutil.NewTestQuote("evt_1", "pinnacle", tt.home, tt.away, time.Now())
			err := q.Validate()
			if tt.wantErr && !errors.Is(err, models.ErrInvalidQuote) {
				t.Errorf("expected ErrInvalidQuote, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
