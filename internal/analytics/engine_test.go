package analytics

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optiflow/internal/domain/chain"
	"optiflow/internal/domain/market"
	"optiflow/internal/domain/signal"
)

// buildChain creates a snapshot of n strikes centered on atm with the given
// per-strike OI
func buildChain(symbol string, atm, interval, n int, ceOI, peOI int64) *chain.Snapshot {
	rows := make([]chain.StrikeRow, 0, n)
	start := atm - (n/2)*interval
	for i := 0; i < n; i++ {
		strike := start + i*interval
		rows = append(rows, chain.StrikeRow{
			Strike: strike,
			IsATM:  strike == atm,
			CE:     chain.LegQuote{OI: ceOI, Trend: chain.TrendNeutral},
			PE:     chain.LegQuote{OI: peOI, Trend: chain.TrendNeutral},
		})
	}
	return &chain.Snapshot{Symbol: symbol, Timestamp: time.Now(), Rows: rows}
}

func niftySpec(t *testing.T) market.Spec {
	t.Helper()
	spec, ok := market.SpecFor(market.SymbolNifty)
	require.True(t, ok)
	return spec
}

func TestPCR(t *testing.T) {
	snap := buildChain("NIFTY", 24800, 50, 12, 1000, 1250)
	assert.InDelta(t, 1.25, PCR(snap.Rows), 1e-9)

	// No call OI yields zero, not a division error
	empty := buildChain("NIFTY", 24800, 50, 4, 0, 500)
	assert.Equal(t, 0.0, PCR(empty.Rows))
}

func TestPCR_OrderIndependent(t *testing.T) {
	snap := buildChain("NIFTY", 24800, 50, 15, 800, 1100)
	want := PCR(snap.Rows)

	shuffled := make([]chain.StrikeRow, len(snap.Rows))
	copy(shuffled, snap.Rows)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	assert.Equal(t, want, PCR(shuffled))
}

func TestSentimentFor(t *testing.T) {
	assert.Equal(t, signal.SentimentBullish, SentimentFor(1.25))
	assert.Equal(t, signal.SentimentBullish, SentimentFor(1.0))
	assert.Equal(t, signal.SentimentSideways, SentimentFor(0.9))
	assert.Equal(t, signal.SentimentBearish, SentimentFor(0.8))
	assert.Equal(t, signal.SentimentBearish, SentimentFor(0.5))
}

// writerPain recomputes total writer pain at an expiration strike the slow
// way, independent of the implementation under test
func writerPain(rows []chain.StrikeRow, e int) float64 {
	pain := 0.0
	for _, row := range rows {
		if e > row.Strike {
			pain += float64(e-row.Strike) * float64(row.CE.OI)
		}
		if e < row.Strike {
			pain += float64(row.Strike-e) * float64(row.PE.OI)
		}
	}
	return pain
}

func TestMaxPain_MembershipAndMinimality(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 25; trial++ {
		n := 8 + rng.Intn(12)
		rows := make([]chain.StrikeRow, 0, n)
		for i := 0; i < n; i++ {
			rows = append(rows, chain.StrikeRow{
				Strike: 24000 + i*50,
				CE:     chain.LegQuote{OI: rng.Int63n(100000)},
				PE:     chain.LegQuote{OI: rng.Int63n(100000)},
			})
		}

		got := MaxPain(rows)

		member := false
		best := writerPain(rows, got)
		for _, row := range rows {
			if row.Strike == got {
				member = true
			}
			assert.LessOrEqual(t, best, writerPain(rows, row.Strike))
		}
		require.True(t, member, "max pain %d not a chain strike", got)
	}
}

func TestMaxPain_SkewedChain(t *testing.T) {
	// Heavy put OI at the top pushes pain minimization upward
	rows := []chain.StrikeRow{
		{Strike: 24700, CE: chain.LegQuote{OI: 100}, PE: chain.LegQuote{OI: 9000}},
		{Strike: 24750, CE: chain.LegQuote{OI: 200}, PE: chain.LegQuote{OI: 8000}},
		{Strike: 24800, CE: chain.LegQuote{OI: 300}, PE: chain.LegQuote{OI: 7000}},
		{Strike: 24850, CE: chain.LegQuote{OI: 400}, PE: chain.LegQuote{OI: 6000}},
		{Strike: 24900, CE: chain.LegQuote{OI: 500}, PE: chain.LegQuote{OI: 5000}},
	}
	assert.Equal(t, 24900, MaxPain(rows))

	assert.Equal(t, 0, MaxPain(nil))
}

func TestAnalyze_BullishPCRScenario(t *testing.T) {
	engine := NewEngine()
	spec := niftySpec(t)

	snap := buildChain("NIFTY", 24800, 50, 12, 1000, 1250)
	res := engine.Analyze(spec, snap, 24800, 24800)

	assert.InDelta(t, 1.25, res.PCR, 1e-9)
	assert.Equal(t, signal.SentimentBullish, res.Sentiment)

	var pcrSignal *signal.Signal
	for i := range res.Signals {
		if res.Signals[i].Strategy == signal.StrategyPCRSentiment {
			pcrSignal = &res.Signals[i]
		}
	}
	require.NotNil(t, pcrSignal, "PCR rule should fire at 1.25")
	assert.Equal(t, signal.TypeBullish, pcrSignal.Type)
	assert.Equal(t, "NIFTY", pcrSignal.Symbol)
	assert.Equal(t, snap.Timestamp, pcrSignal.Timestamp)
}

func TestAnalyze_MaxPainReversionScenario(t *testing.T) {
	engine := NewEngine()
	spec := niftySpec(t)

	// Symmetric OI around 24800 puts max pain there; PCR tuned to 0.95
	snap := buildChain("NIFTY", 24800, 50, 13, 2000, 1900)
	require.Equal(t, 24800, MaxPain(snap.Rows))
	require.InDelta(t, 0.95, PCR(snap.Rows), 1e-9)

	// Spot 24500 sits well below max pain minus the 50 point band
	res := engine.Analyze(spec, snap, 24500, 24500)

	var reversion *signal.Signal
	for i := range res.Signals {
		if res.Signals[i].Strategy == signal.StrategyMaxPainReversion {
			reversion = &res.Signals[i]
		}
	}
	require.NotNil(t, reversion, "reversion rule should fire at 24500 vs 24800")
	assert.Equal(t, signal.TypeBullish, reversion.Type)
	assert.Contains(t, reversion.Description, "24800")
}

func TestAnalyze_ThinChainSuppressesSignals(t *testing.T) {
	engine := NewEngine()
	spec := niftySpec(t)

	snap := buildChain("NIFTY", 24800, 50, 5, 1000, 1500)
	res := engine.Analyze(spec, snap, 24800, 24800)

	// Analytics still computed, signals suppressed
	assert.InDelta(t, 1.5, res.PCR, 1e-9)
	assert.NotZero(t, res.MaxPain)
	assert.Empty(t, res.Signals)
	assert.Empty(t, res.Card.Action)
}

func TestAnalyze_EmptyChain(t *testing.T) {
	engine := NewEngine()
	spec := niftySpec(t)

	res := engine.Analyze(spec, &chain.Snapshot{Symbol: "NIFTY"}, 24800, 24800)
	assert.Zero(t, res.PCR)
	assert.Zero(t, res.MaxPain)
	assert.Empty(t, res.Signals)
}
