// Package analytics derives market-sentiment analytics from a normalized
// option chain: put-call ratio, max-pain strike, the independent signal
// rules, and the composite confluence score card.
package analytics

import (
	"math"

	"optiflow/internal/domain/chain"
	"optiflow/internal/domain/market"
	"optiflow/internal/domain/signal"
)

// minReliableStrikes guards signal generation: a chain thinner than this is
// treated as unreliable upstream data and produces no signals.
const minReliableStrikes = 10

// Engine computes per-cycle analytics for one symbol
type Engine struct{}

// NewEngine creates an analytics engine
func NewEngine() *Engine {
	return &Engine{}
}

// Analyze derives the full analytics for one snapshot. PCR, sentiment and
// max pain are always computed for a non-empty chain; signals and the score
// card additionally require at least minReliableStrikes strikes and a known
// ATM strike.
func (e *Engine) Analyze(spec market.Spec, snap *chain.Snapshot, spot float64, atm int) *signal.Analytics {
	res := &signal.Analytics{
		Signals: []signal.Signal{},
		Card:    signal.ScoreCard{Symbol: spec.Symbol, Reasons: []string{}},
	}
	if snap.Empty() {
		return res
	}

	res.PCR = PCR(snap.Rows)
	res.Sentiment = SentimentFor(res.PCR)
	res.MaxPain = MaxPain(snap.Rows)

	if len(snap.Rows) < minReliableStrikes || atm == 0 {
		return res
	}

	res.Signals, res.Card = e.evaluate(spec, snap, spot, res.PCR, res.MaxPain, atm)
	return res
}

// PCR is the ratio of total put open interest to total call open interest
// over the full chain, rounded to two decimals. Returns 0 when no call OI
// exists.
func PCR(rows []chain.StrikeRow) float64 {
	var ceOI, peOI int64
	for _, row := range rows {
		ceOI += row.CE.OI
		peOI += row.PE.OI
	}
	if ceOI == 0 {
		return 0
	}
	return round2(float64(peOI) / float64(ceOI))
}

// SentimentFor maps a PCR reading to coarse market sentiment. The bands are
// looser than the signal-rule thresholds on purpose: sentiment is a label,
// signals require stronger conviction.
func SentimentFor(pcr float64) signal.Sentiment {
	switch {
	case pcr >= 1:
		return signal.SentimentBullish
	case pcr <= 0.8:
		return signal.SentimentBearish
	default:
		return signal.SentimentSideways
	}
}

// MaxPain returns the strike at which total option-writer pain is minimal.
// For each candidate expiration strike E, pain is
//
//	sum(max(0, E-k) * ceOI(k)) + sum(max(0, k-E) * peOI(k))
//
// over all strikes k. Ties resolve to the first candidate encountered.
func MaxPain(rows []chain.StrikeRow) int {
	if len(rows) == 0 {
		return 0
	}

	best := 0
	bestPain := math.Inf(1)
	for _, candidate := range rows {
		e := candidate.Strike
		pain := 0.0
		for _, row := range rows {
			if e > row.Strike {
				pain += float64(e-row.Strike) * float64(row.CE.OI)
			}
			if e < row.Strike {
				pain += float64(row.Strike-e) * float64(row.PE.OI)
			}
		}
		if pain < bestPain {
			bestPain = pain
			best = e
		}
	}
	return best
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
