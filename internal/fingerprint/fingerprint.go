package fingerprint

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/XavierBriggs/Delphi/pkg/contracts"
	"github.com/XavierBriggs/Delphi/pkg/models"
	"github.com/XavierBriggs/Delphi/pkg/oddsmath"
	"github.com/cespare/xxhash/v2"
)

const (
	// bucketUnquoted is the time bucket for an event with no usable quote
	bucketUnquoted = "unquoted"

	// bucketClosed is the time bucket for a final event
	bucketClosed = "closed"

	// bucketStarted covers quotes observed at or after the scheduled start
	bucketStarted = "started"
)

// defaultBucketWidth is used when a sport reports no market move threshold
const defaultBucketWidth = 0.02

// Result is a computed fingerprint
type Result struct {
	Token string
	Parts models.FingerprintParts
}

// Compute summarizes the inputs that are allowed to change a grade.
//
// Only information milestones, a material line move, a time bucket change or a
// status change alter the token. Every input is taken from the arguments (the
// time bucket uses quote.ObservedAt, not the wall clock), so the same inputs
// yield the same token in every process regardless of what was seen before.
//
// The market part is the quote's no-vig home probability in fixed-width buckets
// of the sport's move threshold. Line noise inside a bucket leaves the token alone.
func Compute(state models.InformationState, quote *models.MarketQuote, sport contracts.SportModule) (Result, error) {
	parts := models.FingerprintParts{
		StarterConfirmed: state.StarterConfirmed,
		LineupPosted:     state.LineupPosted,
		Status:           state.Status,
		TimeBucket:       bucketUnquoted,
	}

	if quote != nil {
		fairHome, err := homeProbability(*quote)
		if err != nil {
			return Result{}, fmt.Errorf("fingerprint market: %w", err)
		}

		parts.QuoteAvailable = true
		parts.MarketBucket = MarketBucket(fairHome, sport.GetMarketMoveThreshold())
		parts.TimeBucket = TimeBucket(sport.GetTimeBuckets(), state.CommenceTime.Sub(quote.ObservedAt).Hours())
	}

	if state.Status.IsTerminal() {
		parts.TimeBucket = bucketClosed
	}

	return Result{
		Token: Token(state.EventID, parts),
		Parts: parts,
	}, nil
}

// MarketBucket maps a fair probability to its bucket index for the given width
func MarketBucket(fairHome, width float64) int {
	if width <= 0 {
		width = defaultBucketWidth
	}
	return int(math.Floor(fairHome / width))
}

// Token hashes the parts into a stable, compact string
func Token(eventID string, parts models.FingerprintParts) string {
	fields := []string{
		eventID,
		strconv.FormatBool(parts.StarterConfirmed),
		strconv.FormatBool(parts.LineupPosted),
		string(parts.Status),
		strconv.FormatBool(parts.QuoteAvailable),
		strconv.Itoa(parts.MarketBucket),
		parts.TimeBucket,
	}

	return strconv.FormatUint(xxhash.Sum64String(strings.Join(fields, "|")), 16)
}

// TimeBucket names the tier containing hoursUntil. Tiers are (ToHours, FromHours].
func TimeBucket(buckets []contracts.TimeBucket, hoursUntil float64) string {
	if hoursUntil <= 0 {
		return bucketStarted
	}

	for _, b := range buckets {
		if hoursUntil <= b.FromHours && hoursUntil > b.ToHours {
			return b.Name
		}
	}

	// beyond the farthest tier
	if len(buckets) > 0 {
		return buckets[0].Name
	}
	return bucketUnquoted
}

// homeProbability is the no-vig home probability, or the one-sided implied
// probability when only one side is priced
func homeProbability(quote models.MarketQuote) (float64, error) {
	fairHome, _, err := oddsmath.RemoveVig(quote.HomeMoneyline, quote.AwayMoneyline)
	if err == nil {
		return fairHome, nil
	}

	if home, homeErr := oddsmath.ImpliedProbability(quote.HomeMoneyline); homeErr == nil {
		return home, nil
	}
	if away, awayErr := oddsmath.ImpliedProbability(quote.AwayMoneyline); awayErr == nil {
		return 1 - away, nil
	}

	return 0, err
}
