package chain

import (
	"context"
	"time"

	chaindomain "optiflow/internal/domain/chain"
	"optiflow/internal/domain/market"
	"optiflow/internal/workers"
	"optiflow/pkg/errors"
)

// Cleanup purges chain and spot history older than the retention window
type Cleanup struct {
	*workers.BaseWorker

	repo      chaindomain.Repository
	retention time.Duration
}

// NewCleanup creates the retention worker
func NewCleanup(interval, retention time.Duration, repo chaindomain.Repository) *Cleanup {
	return &Cleanup{
		BaseWorker: workers.NewBaseWorker("history_cleanup", interval, true),
		repo:       repo,
		retention:  retention,
	}
}

// Run deletes rows older than the retention cutoff
func (c *Cleanup) Run(ctx context.Context) error {
	start := time.Now()
	cutoff := market.NowIST().Add(-c.retention)

	if err := c.repo.PurgeOlderThan(ctx, cutoff); err != nil {
		c.RecordError(err, time.Since(start))
		return errors.Wrap(err, "purge chain history")
	}

	c.Log().Infow("history purged", "cutoff", cutoff)
	c.RecordRun(time.Since(start))
	return nil
}
