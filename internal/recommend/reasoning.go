package recommend

import (
	"fmt"
	"strings"

	"github.com/XavierBriggs/Delphi/internal/edge"
	"github.com/XavierBriggs/Delphi/pkg/contracts"
	"github.com/XavierBriggs/Delphi/pkg/models"
	"github.com/XavierBriggs/Delphi/pkg/oddsmath"
)

var factorLabels = map[models.FactorType]string{
	models.FactorOffensive:   "offensive production",
	models.FactorPitching:    "pitching matchup",
	models.FactorSituational: "situational edge",
	models.FactorMomentum:    "momentum",
	models.FactorMarket:      "market inefficiency",
	models.FactorConfidence:  "model confidence",
}

// Reasoning summarizes model vs market probability and the dominant factor
func Reasoning(rec models.Recommendation, side edge.SideEdge, dominant models.FactorType, state models.InformationState, sport contracts.SportModule) string {
	var b strings.Builder

	team := rec.Selection.Team
	if team == "" {
		team = string(rec.Selection.Side)
	}

	fmt.Fprintf(&b, "%s %s: model %.1f%% vs market %.1f%% (%+d at %s), edge %+.1f pts; driven by %s.",
		rec.Grade, team,
		rec.PredictedProbability*100, rec.ImpliedProbability*100,
		rec.Odds, rec.BookKey,
		rec.Edge*100,
		factorLabels[dominant],
	)

	if side.Anchored() {
		fmt.Fprintf(&b, " Model probability %.1f%% anchored to market range.", side.RawPredictedProbability*100)
	}

	if !state.StarterConfirmed && sport != nil {
		fmt.Fprintf(&b, " Awaiting %s.", sport.GetStarterLabel())
	}

	switch {
	case rec.KellyFraction == 0:
		b.WriteString(" No stake suggested.")
	case rec.KellyFraction >= oddsmath.MaxKellyFraction:
		if raw, err := oddsmath.RawKellyFraction(rec.PredictedProbability, rec.Odds); err == nil && raw > oddsmath.MaxKellyFraction {
			fmt.Fprintf(&b, " Kelly %.1f%% capped at %.0f%%.", raw*100, oddsmath.MaxKellyFraction*100)
		}
	}

	return b.String()
}
