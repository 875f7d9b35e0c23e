package postgres

import (
	"context"

	"optiflow/pkg/errors"
)

// EnsureSchema creates the signals table if it does not exist
func (r *SignalRepository) EnsureSchema(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS signals (
			id          UUID PRIMARY KEY,
			symbol      TEXT NOT NULL,
			timestamp   TIMESTAMPTZ NOT NULL,
			type        TEXT NOT NULL,
			strategy    TEXT NOT NULL,
			description TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_signals_symbol_timestamp
			ON signals (symbol, timestamp DESC);`

	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return errors.Wrap(err, "ensure signals schema")
	}
	return nil
}
