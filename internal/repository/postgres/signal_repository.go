package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"optiflow/internal/domain/signal"
)

// Compile-time check
var _ signal.Repository = (*SignalRepository)(nil)

// SignalRepository implements signal.Repository using sqlx
type SignalRepository struct {
	db *sqlx.DB
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(db *sqlx.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

// Insert persists a batch of signals from one cycle
func (r *SignalRepository) Insert(ctx context.Context, signals []signal.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	query := `
		INSERT INTO signals (id, symbol, timestamp, type, strategy, description)
		VALUES (:id, :symbol, :timestamp, :type, :strategy, :description)`

	_, err := r.db.NamedExecContext(ctx, query, signals)
	return err
}

// GetSince returns signals for a symbol newer than the given time, most
// recent first
func (r *SignalRepository) GetSince(ctx context.Context, symbol string, since time.Time, limit int) ([]signal.Signal, error) {
	signals := []signal.Signal{}

	query := `
		SELECT id, symbol, timestamp, type, strategy, description
		FROM signals
		WHERE symbol = $1 AND timestamp > $2
		ORDER BY timestamp DESC
		LIMIT $3`

	err := r.db.SelectContext(ctx, &signals, query, symbol, since, limit)
	if err != nil {
		return nil, err
	}

	return signals, nil
}
