package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyTrend(t *testing.T) {
	assert.Equal(t, TrendLongBuildup, ClassifyTrend(12.5, 1000))
	assert.Equal(t, TrendShortBuildup, ClassifyTrend(-12.5, 1000))
	assert.Equal(t, TrendShortCovering, ClassifyTrend(12.5, -1000))
	assert.Equal(t, TrendLongUnwinding, ClassifyTrend(-12.5, -1000))

	// Any zero input is Neutral
	assert.Equal(t, TrendNeutral, ClassifyTrend(0, 1000))
	assert.Equal(t, TrendNeutral, ClassifyTrend(12.5, 0))
	assert.Equal(t, TrendNeutral, ClassifyTrend(0, 0))
}

func TestNormalize_MergesAndSorts(t *testing.T) {
	ts := time.Date(2026, time.March, 10, 10, 30, 0, 0, time.UTC)
	raw := []RawLeg{
		{Side: SidePut, Strike: 24850, LTP: 120, PriceChange: -4, OI: 500, OIChange: -50},
		{Side: SideCall, Strike: 24800, LTP: 150, PriceChange: 5, OI: 1000, OIChange: 100},
		{Side: SidePut, Strike: 24800, LTP: 140, PriceChange: -3, OI: 900, OIChange: 80},
		{Side: SideCall, Strike: 24750, LTP: 180, PriceChange: 2, OI: 700, OIChange: -20},
	}

	snap := Normalize("NIFTY", ts, raw, 24800, 50)
	require.False(t, snap.Empty())
	require.Len(t, snap.Rows, 3)

	// Sorted ascending by strike
	assert.Equal(t, 24750, snap.Rows[0].Strike)
	assert.Equal(t, 24800, snap.Rows[1].Strike)
	assert.Equal(t, 24850, snap.Rows[2].Strike)

	// ATM flag only on the ATM strike
	assert.False(t, snap.Rows[0].IsATM)
	assert.True(t, snap.Rows[1].IsATM)

	// Both legs merged into one row
	atmRow := snap.Rows[1]
	assert.Equal(t, int64(1000), atmRow.CE.OI)
	assert.Equal(t, int64(900), atmRow.PE.OI)
	assert.Equal(t, TrendLongBuildup, atmRow.CE.Trend)
	assert.Equal(t, TrendShortBuildup, atmRow.PE.Trend)

	// Missing PE leg at 24750 stays a Neutral zero quote
	assert.Equal(t, int64(0), snap.Rows[0].PE.OI)
	assert.Equal(t, TrendNeutral, snap.Rows[0].PE.Trend)
	assert.Equal(t, TrendShortCovering, snap.Rows[0].CE.Trend)
}

func TestNormalize_TrendWindowEdges(t *testing.T) {
	atm := 24800
	interval := 50
	edge := atm + trendWindowStrikes*interval
	beyond := edge + interval

	raw := []RawLeg{
		{Side: SideCall, Strike: edge, PriceChange: 5, OI: 10, OIChange: 10},
		{Side: SideCall, Strike: beyond, PriceChange: 5, OI: 10, OIChange: 10},
	}
	snap := Normalize("NIFTY", time.Now(), raw, atm, interval)
	require.Len(t, snap.Rows, 2)

	// Exactly at the window edge the trend is classified
	assert.Equal(t, TrendLongBuildup, snap.Rows[0].CE.Trend)
	// One tick past it the leg stays Neutral regardless of its changes
	assert.Equal(t, TrendNeutral, snap.Rows[1].CE.Trend)
}

func TestNormalize_Empty(t *testing.T) {
	snap := Normalize("NIFTY", time.Now(), nil, 24800, 50)
	assert.True(t, snap.Empty())

	var nilSnap *Snapshot
	assert.True(t, nilSnap.Empty())
}
