package chain

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optiflow/internal/analytics"
	chaindomain "optiflow/internal/domain/chain"
	"optiflow/internal/domain/market"
	"optiflow/internal/domain/signal"
	"optiflow/internal/services/notification"
	"optiflow/pkg/errors"
)

type fakeBroker struct {
	quotes       map[string]market.Quote
	quotesErr    error
	chains       map[string][]chaindomain.RawLeg
	chainErr     error
	chainCalls   []string
	quotesCalled int
}

func (f *fakeBroker) FetchQuotes(_ context.Context, symbols []string) (map[string]market.Quote, error) {
	f.quotesCalled++
	if f.quotesErr != nil {
		return nil, f.quotesErr
	}
	return f.quotes, nil
}

func (f *fakeBroker) FetchChain(_ context.Context, symbol string) ([]chaindomain.RawLeg, error) {
	f.chainCalls = append(f.chainCalls, symbol)
	if f.chainErr != nil {
		return nil, f.chainErr
	}
	for prefix, legs := range f.chains {
		if strings.HasPrefix(symbol, prefix) {
			return legs, nil
		}
	}
	return nil, nil
}

type fakeTokens struct {
	valid bool
	err   error
}

func (f *fakeTokens) HasValidToken() (bool, error) { return f.valid, f.err }

type fakeChainRepo struct {
	snapshots []*chaindomain.Snapshot
	ticks     []chaindomain.SpotTick
	insertErr error
}

func (f *fakeChainRepo) InsertSnapshot(_ context.Context, snap *chaindomain.Snapshot) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.snapshots = append(f.snapshots, snap)
	return nil
}

func (f *fakeChainRepo) InsertSpotTick(_ context.Context, _ string, ts time.Time, price float64) error {
	f.ticks = append(f.ticks, chaindomain.SpotTick{Timestamp: ts, Price: price})
	return nil
}

func (f *fakeChainRepo) GetLegs(context.Context, string, time.Time) ([]chaindomain.PersistedLeg, error) {
	return nil, nil
}

func (f *fakeChainRepo) GetSpotTicks(context.Context, string, time.Time) ([]chaindomain.SpotTick, error) {
	return nil, nil
}

func (f *fakeChainRepo) PurgeOlderThan(context.Context, time.Time) error { return nil }

type fakeSignalRepo struct {
	inserted []signal.Signal
}

func (f *fakeSignalRepo) Insert(_ context.Context, signals []signal.Signal) error {
	f.inserted = append(f.inserted, signals...)
	return nil
}

func (f *fakeSignalRepo) GetSince(context.Context, string, time.Time, int) ([]signal.Signal, error) {
	return nil, nil
}

type fakePublisher struct {
	published []signal.Signal
}

func (f *fakePublisher) PublishSignals(_ context.Context, _ string, signals []signal.Signal) {
	f.published = append(f.published, signals...)
}

type fakeHub struct {
	broadcasts [][]*market.Entry
}

func (f *fakeHub) BroadcastState(entries []*market.Entry) {
	f.broadcasts = append(f.broadcasts, entries)
}

// bullishLegs builds a chain whose PCR clears the bullish signal threshold
func bullishLegs(atm, interval, n int) []chaindomain.RawLeg {
	legs := make([]chaindomain.RawLeg, 0, 2*n)
	start := atm - (n/2)*interval
	for i := 0; i < n; i++ {
		strike := start + i*interval
		legs = append(legs,
			chaindomain.RawLeg{Side: chaindomain.SideCall, Strike: strike, LTP: 100, OI: 1000},
			chaindomain.RawLeg{Side: chaindomain.SidePut, Strike: strike, LTP: 100, OI: 1300},
		)
	}
	return legs
}

func allQuotes() map[string]market.Quote {
	return map[string]market.Quote{
		"NSE:NIFTY50-INDEX":   {LastPrice: 24812.5, Change: 50, ChangePercent: 0.2},
		"NSE:NIFTYBANK-INDEX": {LastPrice: 51849.9, Change: -120, ChangePercent: -0.23},
		"NSE:NIFTYFIN-INDEX":  {LastPrice: 23119.0, Change: 10, ChangePercent: 0.04},
	}
}

func newTestCollector(broker *fakeBroker, tokens *fakeTokens, chainRepo *fakeChainRepo, signalRepo *fakeSignalRepo, publisher *fakePublisher, hub *fakeHub) *Collector {
	return NewCollector(
		time.Minute,
		broker, broker, tokens,
		analytics.NewEngine(),
		market.NewState(market.Symbols()),
		chainRepo, signalRepo,
		nil, publisher,
		notification.NewService(nil, nil, 0),
		hub,
	)
}

func TestCollector_SuspendsWithoutToken(t *testing.T) {
	broker := &fakeBroker{}
	collector := newTestCollector(broker, &fakeTokens{valid: false}, &fakeChainRepo{}, &fakeSignalRepo{}, &fakePublisher{}, &fakeHub{})

	err := collector.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoAccessToken))
	assert.Zero(t, broker.quotesCalled)
}

func TestCollector_FullCycle(t *testing.T) {
	broker := &fakeBroker{
		quotes: allQuotes(),
		chains: map[string][]chaindomain.RawLeg{
			"NSE:NIFTY":     bullishLegs(24800, 50, 12),
			"NSE:BANKNIFTY": bullishLegs(51800, 100, 12),
			"NSE:FINNIFTY":  bullishLegs(23100, 50, 12),
		},
	}
	chainRepo := &fakeChainRepo{}
	signalRepo := &fakeSignalRepo{}
	publisher := &fakePublisher{}
	hub := &fakeHub{}

	collector := newTestCollector(broker, &fakeTokens{valid: true}, chainRepo, signalRepo, publisher, hub)
	require.NoError(t, collector.Run(context.Background()))

	// One quotes call serves every symbol
	assert.Equal(t, 1, broker.quotesCalled)
	require.Len(t, broker.chainCalls, 3)

	// Reference instruments carry the prefix, expiry code and ATM strike
	assert.True(t, strings.HasPrefix(broker.chainCalls[0], "NSE:NIFTY"))
	assert.True(t, strings.HasSuffix(broker.chainCalls[0], "24800CE"))
	assert.True(t, strings.HasPrefix(broker.chainCalls[1], "NSE:BANKNIFTY"))
	assert.True(t, strings.HasSuffix(broker.chainCalls[1], "51800CE"))

	// All three snapshots share one cycle timestamp at minute resolution
	require.Len(t, chainRepo.snapshots, 3)
	cycleTS := chainRepo.snapshots[0].Timestamp
	assert.Zero(t, cycleTS.Second())
	for _, snap := range chainRepo.snapshots {
		assert.Equal(t, cycleTS, snap.Timestamp)
	}
	assert.Len(t, chainRepo.ticks, 3)

	// The bullish PCR chain generates persisted and published signals
	assert.NotEmpty(t, signalRepo.inserted)
	assert.Equal(t, len(signalRepo.inserted), len(publisher.published))

	// State refreshed and broadcast once per cycle
	require.Len(t, hub.broadcasts, 1)
	entries := hub.broadcasts[0]
	require.Len(t, entries, 3)
	assert.Equal(t, 24812.5, entries[0].Spot)
	assert.NotNil(t, entries[0].Analytics)
	assert.InDelta(t, 1.3, entries[0].Analytics.PCR, 1e-9)
}

func TestCollector_SkipsSymbolOnChainError(t *testing.T) {
	broker := &fakeBroker{
		quotes:   allQuotes(),
		chainErr: errors.ErrProviderUnavailable,
	}
	chainRepo := &fakeChainRepo{}
	hub := &fakeHub{}

	collector := newTestCollector(broker, &fakeTokens{valid: true}, chainRepo, &fakeSignalRepo{}, &fakePublisher{}, hub)
	require.NoError(t, collector.Run(context.Background()))

	// Every symbol was attempted despite the failures
	assert.Len(t, broker.chainCalls, 3)
	assert.Empty(t, chainRepo.snapshots)
	// The cycle still broadcasts the previous state
	assert.Len(t, hub.broadcasts, 1)
}

func TestCollector_EmptyChainKeepsPreviousState(t *testing.T) {
	broker := &fakeBroker{quotes: allQuotes()}
	chainRepo := &fakeChainRepo{}

	collector := newTestCollector(broker, &fakeTokens{valid: true}, chainRepo, &fakeSignalRepo{}, &fakePublisher{}, &fakeHub{})
	require.NoError(t, collector.Run(context.Background()))

	// Empty chains persist nothing
	assert.Empty(t, chainRepo.snapshots)
	assert.Empty(t, chainRepo.ticks)
}

func TestCollector_MissingQuoteSkipsSymbol(t *testing.T) {
	quotes := allQuotes()
	delete(quotes, "NSE:NIFTYBANK-INDEX")

	broker := &fakeBroker{
		quotes: quotes,
		chains: map[string][]chaindomain.RawLeg{
			"NSE:NIFTY":    bullishLegs(24800, 50, 12),
			"NSE:FINNIFTY": bullishLegs(23100, 50, 12),
		},
	}

	collector := newTestCollector(broker, &fakeTokens{valid: true}, &fakeChainRepo{}, &fakeSignalRepo{}, &fakePublisher{}, &fakeHub{})
	require.NoError(t, collector.Run(context.Background()))
	assert.Len(t, broker.chainCalls, 2)
}

func TestCollector_TokenLossMidCycle(t *testing.T) {
	broker := &fakeBroker{
		quotes:   allQuotes(),
		chainErr: errors.ErrNoAccessToken,
	}

	collector := newTestCollector(broker, &fakeTokens{valid: true}, &fakeChainRepo{}, &fakeSignalRepo{}, &fakePublisher{}, &fakeHub{})
	err := collector.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoAccessToken))
	// The first chain failure aborts the cycle instead of burning the
	// remaining symbols
	assert.Len(t, broker.chainCalls, 1)
}

func TestCleanup_Purges(t *testing.T) {
	repo := &purgeRecorder{}
	cleanup := NewCleanup(24*time.Hour, 7*24*time.Hour, repo)

	require.NoError(t, cleanup.Run(context.Background()))
	require.Len(t, repo.cutoffs, 1)

	// Cutoff sits seven days back, within scheduling slack
	age := time.Since(repo.cutoffs[0])
	assert.InDelta(t, (7 * 24 * time.Hour).Seconds(), age.Seconds(), 5)
}

type purgeRecorder struct {
	fakeChainRepo
	cutoffs []time.Time
}

func (p *purgeRecorder) PurgeOlderThan(_ context.Context, cutoff time.Time) error {
	p.cutoffs = append(p.cutoffs, cutoff)
	return nil
}
