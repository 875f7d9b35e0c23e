package clickhouse

import (
	"context"

	"optiflow/pkg/errors"
)

// EnsureSchema creates the time-series tables if they do not exist.
// Retention is handled by the cleanup worker rather than a table TTL so the
// purge cutoff stays configurable at runtime.
func (r *ChainRepository) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS option_chain (
			timestamp DateTime,
			symbol    LowCardinality(String),
			strike    Int32,
			type      LowCardinality(String),
			ltp       Float64,
			oi        Int64,
			oi_change Int64,
			volume    Int64,
			iv        Float64,
			delta     Float64
		) ENGINE = MergeTree()
		ORDER BY (symbol, timestamp, strike, type)`,

		`CREATE TABLE IF NOT EXISTS market_history (
			timestamp DateTime,
			symbol    LowCardinality(String),
			price     Float64
		) ENGINE = MergeTree()
		ORDER BY (symbol, timestamp)`,
	}

	for _, stmt := range ddl {
		if err := r.conn.Exec(ctx, stmt); err != nil {
			return errors.Wrap(err, "ensure clickhouse schema")
		}
	}
	return nil
}
