package analytics

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"optiflow/internal/domain/chain"
	"optiflow/internal/domain/market"
	"optiflow/internal/domain/signal"
)

// Rule thresholds. The PCR signal bands are tighter than the sentiment
// bands; the aggression ratio is how far one side's OI build must exceed
// the other's before writing counts as one-sided.
const (
	pcrBullThreshold    = 1.1
	pcrBearThreshold    = 0.9
	oiAggressionRatio   = 1.5
	trendScoreThreshold = 2.5
	flowBandPercent     = 0.012
)

// Composite score contributions per rule
const (
	flowUnwindingWeight = 4
	flowWritingWeight   = 3
	trendWeight         = 2
	pcrWeight           = 2
	maxPainWeight       = 1
)

// flowKind classifies the near-ATM OI flow read
type flowKind int

const (
	flowBalanced flowKind = iota
	flowCallUnwinding
	flowPutUnwinding
	flowPutWriting
	flowCallWriting
)

type flowRead struct {
	kind        flowKind
	description string
	ceSum       int64
	peSum       int64
}

func (f flowRead) bullish() bool {
	return f.kind == flowCallUnwinding || f.kind == flowPutWriting
}

func (f flowRead) bearish() bool {
	return f.kind == flowPutUnwinding || f.kind == flowCallWriting
}

func (f flowRead) unwinding() bool {
	return f.kind == flowCallUnwinding || f.kind == flowPutUnwinding
}

// evaluate runs the four independent signal rules and builds the composite
// confluence score card
func (e *Engine) evaluate(spec market.Spec, snap *chain.Snapshot, spot, pcr float64, maxPain, atm int) ([]signal.Signal, signal.ScoreCard) {
	signals := []signal.Signal{}
	add := func(typ signal.Type, strategy, description string) {
		signals = append(signals, signal.Signal{
			ID:          uuid.New(),
			Symbol:      spec.Symbol,
			Timestamp:   snap.Timestamp,
			Type:        typ,
			Strategy:    strategy,
			Description: description,
		})
	}

	// 1. PCR sentiment
	if pcr >= pcrBullThreshold {
		add(signal.TypeBullish, signal.StrategyPCRSentiment,
			fmt.Sprintf("High PCR (%.2f) indicates put writing support.", pcr))
	} else if pcr <= pcrBearThreshold {
		add(signal.TypeBearish, signal.StrategyPCRSentiment,
			fmt.Sprintf("Low PCR (%.2f) indicates call writing resistance.", pcr))
	}

	// 2. Max pain reversion. Fires only when PCR does not contradict the
	// reversion direction.
	div := spec.MaxPainDivisor
	if spot < float64(maxPain)-div && pcr > pcrBearThreshold {
		add(signal.TypeBullish, signal.StrategyMaxPainReversion,
			fmt.Sprintf("Price oversold below Max Pain (%d). Rebound likely.", maxPain))
	} else if spot > float64(maxPain)+div && pcr < pcrBullThreshold {
		add(signal.TypeBearish, signal.StrategyMaxPainReversion,
			fmt.Sprintf("Price overbought above Max Pain (%d). Correction likely.", maxPain))
	}

	near := nearATM(snap.Rows, atm)

	// 3. Smart money flow
	flow := analyzeFlow(near)
	if flow.bullish() {
		add(signal.TypeBullish, signal.StrategySmartMoneyFlow, flow.description)
	} else if flow.bearish() {
		add(signal.TypeBearish, signal.StrategySmartMoneyFlow, flow.description)
	}

	// 4. Trend alignment
	score := trendScore(near)
	if score >= trendScoreThreshold {
		add(signal.TypeBullish, signal.StrategyTrendAlignment,
			fmt.Sprintf("Market structure is bullish (score %.1f).", score))
	} else if score <= -trendScoreThreshold {
		add(signal.TypeBearish, signal.StrategyTrendAlignment,
			fmt.Sprintf("Market structure is bearish (score %.1f).", score))
	}

	card := buildScoreCard(spec, flow, score, spot, pcr, maxPain)
	return signals, card
}

// nearATM restricts the chain to strikes within flowBandPercent of the ATM
// strike
func nearATM(rows []chain.StrikeRow, atm int) []chain.StrikeRow {
	band := float64(atm) * flowBandPercent
	out := make([]chain.StrikeRow, 0, len(rows))
	for _, row := range rows {
		diff := float64(row.Strike - atm)
		if diff < 0 {
			diff = -diff
		}
		if diff <= band {
			out = append(out, row)
		}
	}
	return out
}

// analyzeFlow sums call and put OI change near the money and classifies the
// combination: one side exiting while the other writes is the strongest
// read, both sides writing counts only when clearly one-sided.
func analyzeFlow(near []chain.StrikeRow) flowRead {
	var ceSum, peSum int64
	for _, row := range near {
		ceSum += row.CE.OIChange
		peSum += row.PE.OIChange
	}

	read := flowRead{kind: flowBalanced, ceSum: ceSum, peSum: peSum}
	switch {
	case ceSum < 0 && peSum > 0:
		read.kind = flowCallUnwinding
		read.description = "Calls are exiting while Puts are being written."
	case peSum < 0 && ceSum > 0:
		read.kind = flowPutUnwinding
		read.description = "Puts are exiting while Calls are being written."
	case ceSum > 0 && peSum > 0 && float64(peSum) > float64(ceSum)*oiAggressionRatio:
		read.kind = flowPutWriting
		read.description = fmt.Sprintf("Aggressive put writing: %s OI added vs %s in calls.",
			humanize.Comma(peSum), humanize.Comma(ceSum))
	case ceSum > 0 && peSum > 0 && float64(ceSum) > float64(peSum)*oiAggressionRatio:
		read.kind = flowCallWriting
		read.description = fmt.Sprintf("Aggressive call writing: %s OI added vs %s in puts.",
			humanize.Comma(ceSum), humanize.Comma(peSum))
	}
	return read
}

// trendScore accumulates the weighted buildup/unwinding read over the
// near-ATM window. Call buildups lean with price, put buildups against it;
// covering and unwinding carry half weight.
func trendScore(near []chain.StrikeRow) float64 {
	score := 0.0
	for _, row := range near {
		switch row.CE.Trend {
		case chain.TrendLongBuildup:
			score += 1
		case chain.TrendShortBuildup:
			score -= 1
		case chain.TrendShortCovering:
			score += 0.5
		case chain.TrendLongUnwinding:
			score -= 0.5
		}

		switch row.PE.Trend {
		case chain.TrendShortBuildup:
			score += 1
		case chain.TrendLongBuildup:
			score -= 1
		case chain.TrendShortCovering:
			score -= 0.5
		case chain.TrendLongUnwinding:
			score += 0.5
		}
	}
	return score
}

// buildScoreCard folds the rule reads into the composite confluence score.
// Contributions: flow +/-4 (unwinding) or +/-3 (writing), trend +/-2,
// PCR +/-2, max pain +/-1. Reasons keep flow, trend, PCR, max-pain priority
// and are capped at the top two.
func buildScoreCard(spec market.Spec, flow flowRead, tScore, spot, pcr float64, maxPain int) signal.ScoreCard {
	score := 0.0
	reasons := []string{}

	if flow.bullish() {
		if flow.unwinding() {
			score += flowUnwindingWeight
			reasons = append(reasons, "Call Unwinding (Explosive)")
		} else {
			score += flowWritingWeight
			reasons = append(reasons, "Put Writing (Support)")
		}
	} else if flow.bearish() {
		if flow.unwinding() {
			score -= flowUnwindingWeight
			reasons = append(reasons, "Put Unwinding (Crash)")
		} else {
			score -= flowWritingWeight
			reasons = append(reasons, "Call Writing (Resistance)")
		}
	}

	if tScore >= trendScoreThreshold {
		score += trendWeight
		reasons = append(reasons, "Bullish Structure")
	} else if tScore <= -trendScoreThreshold {
		score -= trendWeight
		reasons = append(reasons, "Bearish Structure")
	}

	if pcr >= pcrBullThreshold {
		score += pcrWeight
		reasons = append(reasons, "PCR Oversold/Bullish")
	} else if pcr <= pcrBearThreshold {
		score -= pcrWeight
		reasons = append(reasons, "PCR Overbought/Bearish")
	}

	// Reversion lean: price stretched above max pain subtracts, below adds
	div := spec.MaxPainDivisor
	if spot > float64(maxPain)+div {
		score -= maxPainWeight
		reasons = append(reasons, "Above Max Pain (Reversion)")
	} else if spot < float64(maxPain)-div {
		score += maxPainWeight
		reasons = append(reasons, "Below Max Pain (Reversion)")
	}

	action, color := recommend(score)
	if len(reasons) > 2 {
		reasons = reasons[:2]
	}

	return signal.ScoreCard{
		Symbol:  spec.Symbol,
		Score:   score,
		Action:  action,
		Color:   color,
		Reasons: reasons,
		PCR:     pcr,
		MaxPain: maxPain,
		Spot:    spot,
	}
}

// recommend maps the composite score to a trade stance and dashboard color
func recommend(score float64) (string, string) {
	switch {
	case score >= 5:
		return "STRONG BUY (CE)", "emerald"
	case score >= 2:
		return "BUY ON DIPS", "teal"
	case score <= -5:
		return "STRONG SELL (PE)", "rose"
	case score <= -2:
		return "SELL ON RISE", "orange"
	default:
		return "WAIT / NEUTRAL", "slate"
	}
}
