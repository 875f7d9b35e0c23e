// Package history reconstructs time-bucketed near-the-money open-interest
// series from persisted chain snapshots for the dashboard charts.
package history

import (
	"context"
	"sort"
	"time"

	"optiflow/internal/domain/chain"
	"optiflow/internal/domain/market"
	"optiflow/pkg/errors"
	"optiflow/pkg/logger"
)

// Point is one aggregated history bucket. Price is nil when no direct spot
// tick existed for the bucket, even if a parity proxy was used for the
// range filter; consumers must distinguish measured from inferred spot.
type Point struct {
	Time     time.Time `json:"time"`
	CEChange int64     `json:"ce_change"`
	PEChange int64     `json:"pe_change"`
	Price    *float64  `json:"price"`
}

// Service aggregates persisted snapshots into chart series
type Service struct {
	repo chain.Repository
	log  *logger.Logger
}

// NewService creates a history aggregation service
func NewService(repo chain.Repository) *Service {
	return &Service{
		repo: repo,
		log:  logger.Get().With("component", "history"),
	}
}

// OIHistory builds today's OI-change series for one symbol. Per timestamp
// bucket the spot is taken from the recorded tick, falling back to the
// put-call parity proxy (strike with the smallest |CE-PE| last price); the
// bucket is dropped when neither resolves. CE/PE OI changes are summed over
// strikes within the symbol's history range of the resolved spot, and the
// output is limited to the trading session, time ascending.
func (s *Service) OIHistory(ctx context.Context, symbol string) ([]Point, error) {
	spec, ok := market.SpecFor(symbol)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidSymbol, "%s", symbol)
	}

	now := market.NowIST()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, market.IST)

	ticks, err := s.repo.GetSpotTicks(ctx, symbol, startOfDay)
	if err != nil {
		return nil, errors.Wrap(err, "load spot history")
	}
	priceAt := make(map[int64]float64, len(ticks))
	for _, tick := range ticks {
		priceAt[tick.Timestamp.Unix()] = tick.Price
	}

	legs, err := s.repo.GetLegs(ctx, symbol, startOfDay)
	if err != nil {
		return nil, errors.Wrap(err, "load chain history")
	}

	// Group legs per timestamp, preserving first-seen order
	buckets := make(map[int64][]chain.PersistedLeg)
	var order []int64
	for _, leg := range legs {
		key := leg.Timestamp.Unix()
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], leg)
	}

	points := make([]Point, 0, len(order))
	for _, key := range order {
		ts := time.Unix(key, 0).In(market.IST)
		if !market.InSession(ts) {
			continue
		}

		rows := buckets[key]
		spot, measured := priceAt[key]
		if !measured {
			proxy, ok := paritySpot(rows)
			if !ok {
				continue
			}
			spot = proxy
		}

		var ceSum, peSum int64
		for _, leg := range rows {
			diff := float64(leg.Strike) - spot
			if diff < 0 {
				diff = -diff
			}
			if diff > float64(spec.HistoryRange) {
				continue
			}
			switch leg.Side {
			case chain.SideCall:
				ceSum += leg.OIChange
			case chain.SidePut:
				peSum += leg.OIChange
			}
		}

		point := Point{Time: ts, CEChange: ceSum, PEChange: peSum}
		if measured {
			price := spot
			point.Price = &price
		}
		points = append(points, point)
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})
	return points, nil
}

// paritySpot estimates the spot as the strike minimizing the absolute
// difference between call and put last prices. Requires both legs priced;
// returns false when no strike qualifies.
func paritySpot(rows []chain.PersistedLeg) (float64, bool) {
	type pair struct {
		ce, pe float64
		hasCE  bool
		hasPE  bool
	}
	byStrike := make(map[int]*pair)
	var strikes []int
	for _, leg := range rows {
		p, ok := byStrike[leg.Strike]
		if !ok {
			p = &pair{}
			byStrike[leg.Strike] = p
			strikes = append(strikes, leg.Strike)
		}
		switch leg.Side {
		case chain.SideCall:
			p.ce, p.hasCE = leg.LTP, true
		case chain.SidePut:
			p.pe, p.hasPE = leg.LTP, true
		}
	}

	// Iterate in strike order so ties resolve deterministically
	sort.Ints(strikes)

	best := 0
	bestDiff := 0.0
	found := false
	for _, strike := range strikes {
		p := byStrike[strike]
		if !p.hasCE || !p.hasPE {
			continue
		}
		diff := p.ce - p.pe
		if diff < 0 {
			diff = -diff
		}
		if !found || diff < bestDiff {
			found = true
			bestDiff = diff
			best = strike
		}
	}
	return float64(best), found
}
