package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"optiflow/internal/domain/chain"
	"optiflow/pkg/errors"
)

// Compile-time check
var _ chain.Repository = (*ChainRepository)(nil)

// ChainRepository implements chain.Repository using ClickHouse.
// Chain snapshots and spot ticks are append-only time series; the polling
// worker is the only writer.
type ChainRepository struct {
	conn driver.Conn
}

// NewChainRepository creates a new chain snapshot repository
func NewChainRepository(conn driver.Conn) *ChainRepository {
	return &ChainRepository{conn: conn}
}

// InsertSnapshot appends every leg of a chain snapshot in one batch
func (r *ChainRepository) InsertSnapshot(ctx context.Context, snap *chain.Snapshot) error {
	if snap.Empty() {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO option_chain (
			timestamp, symbol, strike, type, ltp, oi, oi_change, volume, iv, delta
		)
	`)
	if err != nil {
		return errors.Wrap(err, "prepare option chain batch")
	}

	for _, row := range snap.Rows {
		legs := []struct {
			side  chain.Side
			quote chain.LegQuote
		}{
			{chain.SideCall, row.CE},
			{chain.SidePut, row.PE},
		}
		for _, leg := range legs {
			err := batch.Append(
				snap.Timestamp, snap.Symbol, int32(row.Strike), string(leg.side),
				leg.quote.LTP, leg.quote.OI, leg.quote.OIChange,
				leg.quote.Volume, leg.quote.IV, leg.quote.Delta,
			)
			if err != nil {
				return errors.Wrap(err, "append chain leg")
			}
		}
	}

	return batch.Send()
}

// InsertSpotTick appends one spot price observation
func (r *ChainRepository) InsertSpotTick(ctx context.Context, symbol string, ts time.Time, price float64) error {
	err := r.conn.Exec(ctx, `
		INSERT INTO market_history (timestamp, symbol, price) VALUES (?, ?, ?)
	`, ts, symbol, price)
	if err != nil {
		return errors.Wrap(err, "insert spot tick")
	}
	return nil
}

// GetLegs returns persisted legs for a symbol since the given time,
// timestamp ascending
func (r *ChainRepository) GetLegs(ctx context.Context, symbol string, since time.Time) ([]chain.PersistedLeg, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT timestamp, strike, type, ltp, oi, oi_change
		FROM option_chain
		WHERE symbol = ? AND timestamp >= ?
		ORDER BY timestamp ASC
	`, symbol, since)
	if err != nil {
		return nil, errors.Wrap(err, "query chain legs")
	}
	defer rows.Close()

	var legs []chain.PersistedLeg
	for rows.Next() {
		var (
			leg    chain.PersistedLeg
			strike int32
			side   string
		)
		if err := rows.Scan(&leg.Timestamp, &strike, &side, &leg.LTP, &leg.OI, &leg.OIChange); err != nil {
			return nil, errors.Wrap(err, "scan chain leg")
		}
		leg.Strike = int(strike)
		leg.Side = chain.Side(side)
		legs = append(legs, leg)
	}
	return legs, rows.Err()
}

// GetSpotTicks returns persisted spot prices for a symbol since the given
// time, timestamp ascending
func (r *ChainRepository) GetSpotTicks(ctx context.Context, symbol string, since time.Time) ([]chain.SpotTick, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT timestamp, price
		FROM market_history
		WHERE symbol = ? AND timestamp >= ?
		ORDER BY timestamp ASC
	`, symbol, since)
	if err != nil {
		return nil, errors.Wrap(err, "query spot ticks")
	}
	defer rows.Close()

	var ticks []chain.SpotTick
	for rows.Next() {
		var tick chain.SpotTick
		if err := rows.Scan(&tick.Timestamp, &tick.Price); err != nil {
			return nil, errors.Wrap(err, "scan spot tick")
		}
		ticks = append(ticks, tick)
	}
	return ticks, rows.Err()
}

// PurgeOlderThan deletes chain and spot rows older than the cutoff
func (r *ChainRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) error {
	if err := r.conn.Exec(ctx, `
		DELETE FROM option_chain WHERE timestamp < ?
	`, cutoff); err != nil {
		return errors.Wrap(err, "purge option chain")
	}

	if err := r.conn.Exec(ctx, `
		DELETE FROM market_history WHERE timestamp < ?
	`, cutoff); err != nil {
		return errors.Wrap(err, "purge market history")
	}
	return nil
}
