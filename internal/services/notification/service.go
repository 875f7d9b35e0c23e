// Package notification relays the strongest signal of a polling cycle to an
// external channel, deduplicated by a shared cooldown key.
package notification

import (
	"context"
	"fmt"
	"time"

	"optiflow/internal/domain/signal"
	"optiflow/pkg/logger"
)

// Sender delivers a formatted alert to an external channel
type Sender interface {
	Send(ctx context.Context, title, body string) error
}

// Cooldown gates repeated alerts for the same key. AcquireOnce returns true
// only for the first caller within the ttl window.
type Cooldown interface {
	AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Service sends per-signal alerts with cooldown suppression. A nil sender
// disables delivery entirely.
type Service struct {
	sender   Sender
	cooldown Cooldown
	ttl      time.Duration
	log      *logger.Logger
}

// NewService creates a notification service
func NewService(sender Sender, cooldown Cooldown, ttl time.Duration) *Service {
	return &Service{
		sender:   sender,
		cooldown: cooldown,
		ttl:      ttl,
		log:      logger.Get().With("component", "notification"),
	}
}

// AlertSignal notifies about one signal unless delivery is disabled or the
// same symbol/strategy/type combination already alerted within the cooldown
// window. Cooldown errors fail open so a cache outage does not mute alerts.
func (s *Service) AlertSignal(ctx context.Context, sig signal.Signal) error {
	if s.sender == nil {
		return nil
	}

	if s.cooldown != nil {
		key := fmt.Sprintf("notify:%s:%s:%s", sig.Symbol, sig.Strategy, sig.Type)
		acquired, err := s.cooldown.AcquireOnce(ctx, key, s.ttl)
		if err != nil {
			s.log.Warnw("notification cooldown check failed", "key", key, "error", err)
		} else if !acquired {
			s.log.Debugw("notification suppressed by cooldown", "key", key)
			return nil
		}
	}

	title := fmt.Sprintf("%s Alert", sig.Symbol)
	body := fmt.Sprintf("%s - %s: %s", sig.Strategy, sig.Type, sig.Description)
	return s.sender.Send(ctx, title, body)
}
