// Package alerts keeps the most recent externally posted alerts per ticker.
// Entries live in memory only and reset on restart.
package alerts

import (
	"strings"
	"sync"
	"time"

	"optiflow/internal/domain/market"
)

// keepPerTicker bounds how many alerts are retained per ticker
const keepPerTicker = 5

// Alert is one inbound webhook alert
type Alert struct {
	Ticker     string    `json:"ticker"`
	Strategy   string    `json:"strategy"`
	Action     string    `json:"action"`
	Price      float64   `json:"price"`
	ReceivedAt time.Time `json:"received_at"`
}

// Service stores recent alerts keyed by ticker
type Service struct {
	mu      sync.RWMutex
	entries map[string][]Alert
}

// NewService creates an empty alert store
func NewService() *Service {
	return &Service{entries: make(map[string][]Alert)}
}

// Record stores one alert, evicting the oldest entries for the ticker once
// the per-ticker cap is exceeded. The ticker is upper-cased for lookup and
// the receive time is stamped here.
func (s *Service) Record(a Alert) Alert {
	a.Ticker = normalize(a.Ticker)
	a.ReceivedAt = market.NowIST()

	s.mu.Lock()
	defer s.mu.Unlock()

	list := append(s.entries[a.Ticker], a)
	if len(list) > keepPerTicker {
		list = list[len(list)-keepPerTicker:]
	}
	s.entries[a.Ticker] = list
	return a
}

// Recent returns the retained alerts for a ticker, newest last
func (s *Service) Recent(ticker string) []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.entries[normalize(ticker)]
	out := make([]Alert, len(list))
	copy(out, list)
	return out
}

// All returns every retained alert grouped by ticker
func (s *Service) All() map[string][]Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]Alert, len(s.entries))
	for ticker, list := range s.entries {
		cp := make([]Alert, len(list))
		copy(cp, list)
		out[ticker] = cp
	}
	return out
}

func normalize(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
