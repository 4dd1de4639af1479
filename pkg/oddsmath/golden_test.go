package oddsmath_test

import (
	"math"
	"testing"

	"github.com/XavierBriggs/Delphi/pkg/oddsmath"
	"github.com/XavierBriggs/Delphi/pkg/testutil"
)

func TestGoldenFixtures(t *testing.T) {
	for _, fx := range testutil.GetGoldenFixtures() {
		t.Run(fx.Name, func(t *testing.T) {
			home, err := oddsmath.ImpliedProbability(fx.Home)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			away, err := oddsmath.ImpliedProbability(fx.Away)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if math.Abs(home-fx.ExpectedHome) > 0.0001 {
				t.Errorf("home implied = %.4f, want %.4f", home, fx.ExpectedHome)
			}
			if math.Abs(away-fx.ExpectedAway) > 0.0001 {
				t.Errorf("away implied = %.4f, want %.4f", away, fx.ExpectedAway)
			}

			fairHome, fairAway, err := oddsmath.RemoveVig(fx.Home, fx.Away)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(fairHome-fx.ExpectedNoVigHome) > 0.0001 {
				t.Errorf("no-vig home = %.4f, want %.4f", fairHome, fx.ExpectedNoVigHome)
			}
			if math.Abs(fairHome+fairAway-1) > 1e-9 {
				t.Errorf("no-vig pair sums to %.6f", fairHome+fairAway)
			}
		})
	}
}
