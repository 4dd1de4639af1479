package recommend

import (
	"sort"

	"github.com/XavierBriggs/Delphi/pkg/models"
)

// SelectQuote picks the moneyline quote to grade against, honoring the sport's
// book preference. Books outside the preference list rank after it, by key.
// Returns nil when no valid moneyline quote exists.
func SelectQuote(quotes []models.MarketQuote, preference []string) *models.MarketQuote {
	rank := make(map[string]int, len(preference))
	for i, book := range preference {
		rank[book] = i
	}

	candidates := make([]models.MarketQuote, 0, len(quotes))
	for _, q := range quotes {
		if !q.IsMoneyline() || q.Validate() != nil {
			continue
		}
		candidates = append(candidates, q)
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ri, iok := rank[candidates[i].BookKey]
		rj, jok := rank[candidates[j].BookKey]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return candidates[i].BookKey < candidates[j].BookKey
		}
	})

	selected := candidates[0]
	return &selected
}
