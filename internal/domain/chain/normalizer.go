package chain

import (
	"sort"
	"time"
)

// trendWindowStrikes bounds trend classification to strikes near the money;
// far OTM legs trade too thin for the price/OI sign test to mean anything.
const trendWindowStrikes = 20

// ClassifyTrend maps the sign combination of price change and OI change to a
// positioning trend. Zero or mixed-zero inputs fall back to Neutral.
func ClassifyTrend(priceChange float64, oiChange int64) Trend {
	switch {
	case priceChange > 0 && oiChange > 0:
		return TrendLongBuildup
	case priceChange < 0 && oiChange > 0:
		return TrendShortBuildup
	case priceChange > 0 && oiChange < 0:
		return TrendShortCovering
	case priceChange < 0 && oiChange < 0:
		return TrendLongUnwinding
	default:
		return TrendNeutral
	}
}

// Normalize merges raw per-leg quote rows into per-strike records sorted by
// strike ascending. Trend is classified only for strikes within
// trendWindowStrikes*interval of the ATM strike; everything else stays
// Neutral. An empty input produces an empty snapshot, never an error.
func Normalize(symbol string, ts time.Time, rows []RawLeg, atm int, interval int) *Snapshot {
	snap := &Snapshot{Symbol: symbol, Timestamp: ts}
	if len(rows) == 0 {
		return snap
	}

	byStrike := make(map[int]*StrikeRow, len(rows)/2+1)
	for _, raw := range rows {
		row, ok := byStrike[raw.Strike]
		if !ok {
			row = &StrikeRow{
				Strike: raw.Strike,
				IsATM:  raw.Strike == atm,
				CE:     LegQuote{Trend: TrendNeutral},
				PE:     LegQuote{Trend: TrendNeutral},
			}
			byStrike[raw.Strike] = row
		}

		leg := LegQuote{
			LTP:         raw.LTP,
			PriceChange: raw.PriceChange,
			OI:          raw.OI,
			OIChange:    raw.OIChange,
			Volume:      raw.Volume,
			IV:          raw.IV,
			Delta:       raw.Delta,
			Theta:       raw.Theta,
			Trend:       TrendNeutral,
		}
		if inTrendWindow(raw.Strike, atm, interval) {
			leg.Trend = ClassifyTrend(raw.PriceChange, raw.OIChange)
		}

		switch raw.Side {
		case SideCall:
			row.CE = leg
		case SidePut:
			row.PE = leg
		}
	}

	snap.Rows = make([]StrikeRow, 0, len(byStrike))
	for _, row := range byStrike {
		snap.Rows = append(snap.Rows, *row)
	}
	sort.Slice(snap.Rows, func(i, j int) bool {
		return snap.Rows[i].Strike < snap.Rows[j].Strike
	})

	return snap
}

func inTrendWindow(strike, atm, interval int) bool {
	if atm <= 0 || interval <= 0 {
		return false
	}
	diff := strike - atm
	if diff < 0 {
		diff = -diff
	}
	return diff <= trendWindowStrikes*interval
}
