package market

import (
	"sync/atomic"
	"time"

	"optiflow/internal/domain/chain"
	"optiflow/internal/domain/signal"
)

// Entry is the latest derived state for one symbol. Entries are immutable
// once published; a cycle either swaps in a whole new entry or leaves the
// previous one untouched.
type Entry struct {
	Symbol        string            `json:"symbol"`
	Spot          float64           `json:"spot"`
	Change        float64           `json:"change"`
	ChangePercent float64           `json:"change_percent"`
	Snapshot      *chain.Snapshot   `json:"snapshot"`
	Analytics     *signal.Analytics `json:"analytics"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// State holds the per-symbol entries behind atomic pointers. The polling
// worker is the only writer; API handlers and the websocket hub read
// concurrently and always observe a consistent entry.
type State struct {
	order   []string
	entries map[string]*atomic.Pointer[Entry]
}

// NewState seeds a state container with zero-value entries for the given
// symbols
func NewState(symbols []string) *State {
	s := &State{
		order:   append([]string(nil), symbols...),
		entries: make(map[string]*atomic.Pointer[Entry], len(symbols)),
	}
	for _, sym := range symbols {
		p := &atomic.Pointer[Entry]{}
		p.Store(&Entry{Symbol: sym})
		s.entries[sym] = p
	}
	return s
}

// Get returns the current entry for a symbol
func (s *State) Get(symbol string) (*Entry, bool) {
	p, ok := s.entries[symbol]
	if !ok {
		return nil, false
	}
	return p.Load(), true
}

// Swap atomically replaces the entry for its symbol. Unknown symbols are
// ignored; the tracked set is fixed at startup.
func (s *State) Swap(e *Entry) {
	if p, ok := s.entries[e.Symbol]; ok {
		p.Store(e)
	}
}

// All returns the current entries in cycle order
func (s *State) All() []*Entry {
	out := make([]*Entry, 0, len(s.order))
	for _, sym := range s.order {
		out = append(out, s.entries[sym].Load())
	}
	return out
}
