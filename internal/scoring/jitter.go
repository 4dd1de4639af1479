package scoring

import (
	"math"
	"strings"

	"github.com/XavierBriggs/Delphi/pkg/models"
	"github.com/cespare/xxhash/v2"
)

// MaxJitter bounds the smoothing noise added to a band center
const MaxJitter = 3.0

// JitterSource draws the smoothing noise for one side of one (event, fingerprint).
// The engine calls it once per fingerprint and stores the result with the entry.
type JitterSource interface {
	Draw(eventID, fingerprint string, side models.Side) map[models.FactorType]float64
}

// HashJitter derives noise in [-MaxJitter, +MaxJitter] from an xxhash digest of
// (eventID, fingerprint, side, factor), so every process draws the same value.
type HashJitter struct{}

// Draw implements JitterSource
func (HashJitter) Draw(eventID, fingerprint string, side models.Side) map[models.FactorType]float64 {
	out := make(map[models.FactorType]float64, len(models.FactorTypes()))

	for _, factor := range models.FactorTypes() {
		key := strings.Join([]string{eventID, fingerprint, string(side), string(factor)}, "|")
		h := xxhash.Sum64String(key)

		// top 53 bits → uniform [0,1)
		u := float64(h>>11) / float64(uint64(1)<<53)
		j := -MaxJitter + 2*MaxJitter*u

		out[factor] = math.Round(j*100) / 100
	}

	return out
}

// ZeroJitter disables smoothing noise
type ZeroJitter struct{}

// Draw implements JitterSource
func (ZeroJitter) Draw(string, string, models.Side) map[models.FactorType]float64 {
	out := make(map[models.FactorType]float64, len(models.FactorTypes()))
	for _, factor := range models.FactorTypes() {
		out[factor] = 0
	}
	return out
}
