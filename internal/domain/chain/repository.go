package chain

import (
	"context"
	"time"
)

// Repository defines the interface for chain snapshot and spot history storage
type Repository interface {
	// InsertSnapshot appends every leg of a chain snapshot
	InsertSnapshot(ctx context.Context, snap *Snapshot) error

	// InsertSpotTick appends one spot price observation
	InsertSpotTick(ctx context.Context, symbol string, ts time.Time, price float64) error

	// GetLegs returns persisted legs for a symbol since the given time,
	// ordered by timestamp ascending
	GetLegs(ctx context.Context, symbol string, since time.Time) ([]PersistedLeg, error)

	// GetSpotTicks returns persisted spot prices for a symbol since the
	// given time, ordered by timestamp ascending
	GetSpotTicks(ctx context.Context, symbol string, since time.Time) ([]SpotTick, error)

	// PurgeOlderThan deletes chain and spot rows older than the cutoff
	PurgeOlderThan(ctx context.Context, cutoff time.Time) error
}
