// Package chain contains the polling worker that drives the whole engine:
// it fetches quotes and option chains, derives analytics and fans the
// results out to state, storage and notification channels.
package chain

import (
	"context"
	"fmt"
	"time"

	"optiflow/internal/adapters/redis"
	"optiflow/internal/analytics"
	chaindomain "optiflow/internal/domain/chain"
	"optiflow/internal/domain/expiry"
	"optiflow/internal/domain/market"
	"optiflow/internal/domain/signal"
	"optiflow/internal/events"
	"optiflow/internal/metrics"
	"optiflow/internal/services/notification"
	"optiflow/internal/workers"
	"optiflow/pkg/errors"
)

// QuoteProvider fetches spot quotes for broker instruments
type QuoteProvider interface {
	FetchQuotes(ctx context.Context, symbols []string) (map[string]market.Quote, error)
}

// ChainProvider fetches the raw option chain around a reference instrument
type ChainProvider interface {
	FetchChain(ctx context.Context, symbol string) ([]chaindomain.RawLeg, error)
}

// TokenSource reports whether broker credentials are currently usable
type TokenSource interface {
	HasValidToken() (bool, error)
}

// Broadcaster pushes the refreshed per-symbol state to live subscribers
type Broadcaster interface {
	BroadcastState(entries []*market.Entry)
}

// stateCacheTTL bounds how long a cached symbol state outlives the worker
const stateCacheTTL = 5 * time.Minute

// Collector polls the broker once per interval and recomputes analytics for
// every tracked symbol
type Collector struct {
	*workers.BaseWorker

	quotes    QuoteProvider
	chains    ChainProvider
	tokens    TokenSource
	engine    *analytics.Engine
	state     *market.State
	chainRepo chaindomain.Repository
	signals   signal.Repository
	cache     *redis.Client
	publisher events.Publisher
	notifier  *notification.Service
	hub       Broadcaster
}

// NewCollector creates the chain polling worker
func NewCollector(
	interval time.Duration,
	quotes QuoteProvider,
	chains ChainProvider,
	tokens TokenSource,
	engine *analytics.Engine,
	state *market.State,
	chainRepo chaindomain.Repository,
	signals signal.Repository,
	cache *redis.Client,
	publisher events.Publisher,
	notifier *notification.Service,
	hub Broadcaster,
) *Collector {
	return &Collector{
		BaseWorker: workers.NewBaseWorker("chain_collector", interval, true),
		quotes:     quotes,
		chains:     chains,
		tokens:     tokens,
		engine:     engine,
		state:      state,
		chainRepo:  chainRepo,
		signals:    signals,
		cache:      cache,
		publisher:  publisher,
		notifier:   notifier,
		hub:        hub,
	}
}

// Run executes one polling cycle. Symbols are processed in fixed order and
// share one cycle timestamp so persisted rows from the same cycle line up
// across symbols.
func (c *Collector) Run(ctx context.Context) error {
	start := time.Now()

	ok, err := c.tokens.HasValidToken()
	if err != nil {
		return errors.Wrap(err, "check broker token")
	}
	if !ok {
		return errors.ErrNoAccessToken
	}

	specs := market.Specs()
	quoteSymbols := make([]string, 0, len(specs))
	for _, spec := range specs {
		quoteSymbols = append(quoteSymbols, spec.QuoteSymbol)
	}

	quotes, err := c.quotes.FetchQuotes(ctx, quoteSymbols)
	if err != nil {
		if errors.Is(err, errors.ErrNoAccessToken) {
			return err
		}
		return errors.Wrap(err, "fetch spot quotes")
	}

	now := market.NowIST()
	cycleTS := now.Truncate(time.Minute)
	weeklyCode := expiry.Code(expiry.NextWeekly(now), false)
	monthlyCode := expiry.Code(expiry.NextMonthly(now), true)

	for _, spec := range specs {
		quote, ok := quotes[spec.QuoteSymbol]
		if !ok || quote.LastPrice == 0 {
			c.Log().Warnw("spot quote missing, skipping symbol", "symbol", spec.Symbol)
			continue
		}

		code := weeklyCode
		if spec.MonthlyExpiry {
			code = monthlyCode
		}

		if err := c.processSymbol(ctx, spec, quote, code, cycleTS); err != nil {
			if errors.Is(err, errors.ErrNoAccessToken) {
				return err
			}
			c.Log().Warnw("symbol cycle failed",
				"symbol", spec.Symbol,
				"error", err,
			)
		}
	}

	c.hub.BroadcastState(c.state.All())
	c.RecordRun(time.Since(start))
	return nil
}

// processSymbol runs the fetch/normalize/analyze/fan-out pipeline for one
// symbol. Persistence and delivery failures are logged per call site and do
// not abort the pipeline; only fetch errors propagate.
func (c *Collector) processSymbol(ctx context.Context, spec market.Spec, quote market.Quote, expiryCode string, cycleTS time.Time) error {
	atm := spec.ATMStrike(quote.LastPrice)
	instrument := fmt.Sprintf("%s%s%dCE", spec.InstrumentPrefix, expiryCode, atm)

	raw, err := c.chains.FetchChain(ctx, instrument)
	if err != nil {
		return errors.Wrapf(err, "fetch chain for %s", instrument)
	}

	snap := chaindomain.Normalize(spec.Symbol, cycleTS, raw, atm, spec.StrikeInterval)
	if snap.Empty() {
		c.Log().Warnw("empty chain, keeping previous state", "symbol", spec.Symbol)
		return nil
	}
	metrics.ChainStrikes.WithLabelValues(spec.Symbol).Set(float64(len(snap.Rows)))

	result := c.engine.Analyze(spec, snap, quote.LastPrice, atm)

	entry := &market.Entry{
		Symbol:        spec.Symbol,
		Spot:          quote.LastPrice,
		Change:        quote.Change,
		ChangePercent: quote.ChangePercent,
		Snapshot:      snap,
		Analytics:     result,
		UpdatedAt:     cycleTS,
	}
	c.state.Swap(entry)

	if err := c.chainRepo.InsertSnapshot(ctx, snap); err != nil {
		c.Log().Errorw("persist chain snapshot failed", "symbol", spec.Symbol, "error", err)
	}
	if err := c.chainRepo.InsertSpotTick(ctx, spec.Symbol, cycleTS, quote.LastPrice); err != nil {
		c.Log().Errorw("persist spot tick failed", "symbol", spec.Symbol, "error", err)
	}

	if len(result.Signals) > 0 {
		for _, sig := range result.Signals {
			metrics.RecordSignals(sig.Symbol, sig.Strategy, string(sig.Type))
		}
		if err := c.signals.Insert(ctx, result.Signals); err != nil {
			c.Log().Errorw("persist signals failed", "symbol", spec.Symbol, "error", err)
		}

		c.publisher.PublishSignals(ctx, spec.Symbol, result.Signals)

		if err := c.notifier.AlertSignal(ctx, result.Signals[0]); err != nil {
			c.Log().Errorw("signal notification failed", "symbol", spec.Symbol, "error", err)
		}
	}

	if c.cache != nil {
		key := "optiflow:state:" + spec.Symbol
		if err := c.cache.SetJSON(ctx, key, entry, stateCacheTTL); err != nil {
			c.Log().Warnw("state cache write failed", "symbol", spec.Symbol, "error", err)
		}
	}
	return nil
}
