package chain

import "time"

// Side identifies the option leg type
type Side string

const (
	SideCall Side = "CE"
	SidePut  Side = "PE"
)

// Trend classifies short-term positioning on a single leg, derived from the
// sign of the last-price change versus the open-interest change.
type Trend string

const (
	TrendLongBuildup   Trend = "Long Buildup"
	TrendShortBuildup  Trend = "Short Buildup"
	TrendShortCovering Trend = "Short Covering"
	TrendLongUnwinding Trend = "Long Unwinding"
	TrendNeutral       Trend = "Neutral"
)

// RawLeg is one per-leg quote row as returned by the chain provider
type RawLeg struct {
	Side        Side
	Strike      int
	LTP         float64
	PriceChange float64
	OI          int64
	OIChange    int64
	Volume      int64
	IV          float64
	Delta       float64
	Theta       float64
}

// LegQuote holds the quote fields for one side of a strike.
// Missing legs keep zero values and a Neutral trend.
type LegQuote struct {
	LTP         float64 `json:"ltp"`
	PriceChange float64 `json:"price_change"`
	OI          int64   `json:"oi"`
	OIChange    int64   `json:"oi_change"`
	Volume      int64   `json:"volume"`
	IV          float64 `json:"iv"`
	Delta       float64 `json:"delta"`
	Theta       float64 `json:"theta"`
	Trend       Trend   `json:"trend"`
}

// StrikeRow is the merged call/put view of a single strike
type StrikeRow struct {
	Strike int      `json:"strike"`
	IsATM  bool     `json:"is_atm"`
	CE     LegQuote `json:"ce"`
	PE     LegQuote `json:"pe"`
}

// Snapshot is one immutable option-chain capture.
// Rows are unique by strike and sorted ascending.
type Snapshot struct {
	Symbol    string      `json:"symbol"`
	Timestamp time.Time   `json:"timestamp"`
	Rows      []StrikeRow `json:"rows"`
}

// Empty reports whether the snapshot carries no strikes.
// Callers treat an empty snapshot as "skip this cycle", not as an error.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Rows) == 0
}

// SpotTick is one persisted spot price observation
type SpotTick struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// PersistedLeg is the stored shape of a single chain leg, as read back by
// the history aggregator
type PersistedLeg struct {
	Timestamp time.Time
	Strike    int
	Side      Side
	LTP       float64
	OI        int64
	OIChange  int64
}
