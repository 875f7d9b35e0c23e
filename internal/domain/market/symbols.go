package market

import "math"

// Tracked index symbols
const (
	SymbolNifty     = "NIFTY"
	SymbolBankNifty = "BANKNIFTY"
	SymbolFinNifty  = "FINNIFTY"
)

// Spec is the static per-symbol configuration driving one polling cycle
type Spec struct {
	// Symbol is the tracked index name
	Symbol string
	// QuoteSymbol is the exchange instrument for the index spot quote
	QuoteSymbol string
	// InstrumentPrefix builds the reference option symbol, e.g.
	// NSE:NIFTY + 26203 + 24800 + CE
	InstrumentPrefix string
	// StrikeInterval is the exchange tick between adjacent strikes
	StrikeInterval int
	// MaxPainDivisor is the distance band for max-pain reversion
	MaxPainDivisor float64
	// HistoryRange bounds the near-the-money window of the OI history
	// aggregation, in index points around the resolved spot
	HistoryRange int
	// MonthlyExpiry selects the monthly expiry code instead of the weekly one
	MonthlyExpiry bool
}

// ATMStrike rounds the spot price to the nearest strike tick
func (s Spec) ATMStrike(spot float64) int {
	if spot <= 0 || s.StrikeInterval <= 0 {
		return 0
	}
	return int(math.Round(spot/float64(s.StrikeInterval))) * s.StrikeInterval
}

// specs lists tracked symbols in cycle order. Order is deterministic so
// cross-symbol snapshots share one wall-clock timestamp per cycle.
var specs = []Spec{
	{
		Symbol:           SymbolNifty,
		QuoteSymbol:      "NSE:NIFTY50-INDEX",
		InstrumentPrefix: "NSE:NIFTY",
		StrikeInterval:   50,
		MaxPainDivisor:   50,
		HistoryRange:     1000,
		MonthlyExpiry:    false,
	},
	{
		Symbol:           SymbolBankNifty,
		QuoteSymbol:      "NSE:NIFTYBANK-INDEX",
		InstrumentPrefix: "NSE:BANKNIFTY",
		StrikeInterval:   100,
		MaxPainDivisor:   100,
		HistoryRange:     2000,
		MonthlyExpiry:    true,
	},
	{
		Symbol:           SymbolFinNifty,
		QuoteSymbol:      "NSE:NIFTYFIN-INDEX",
		InstrumentPrefix: "NSE:FINNIFTY",
		StrikeInterval:   50,
		MaxPainDivisor:   50,
		HistoryRange:     500,
		MonthlyExpiry:    true,
	},
}

// Specs returns the tracked symbols in cycle order
func Specs() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// SpecFor looks up the configuration for a symbol
func SpecFor(symbol string) (Spec, bool) {
	for _, s := range specs {
		if s.Symbol == symbol {
			return s, true
		}
	}
	return Spec{}, false
}

// Symbols returns the tracked symbol names in cycle order
func Symbols() []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Symbol
	}
	return out
}
