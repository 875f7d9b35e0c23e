package signal

import (
	"context"
	"time"
)

// Repository defines the interface for signal persistence
type Repository interface {
	// Insert persists a batch of signals from one cycle
	Insert(ctx context.Context, signals []Signal) error

	// GetSince returns signals for a symbol newer than the given time,
	// most recent first, capped at limit
	GetSince(ctx context.Context, symbol string, since time.Time, limit int) ([]Signal, error)
}
