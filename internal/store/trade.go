package store

import (
	"sync"
	"time"

	"github.com/psegatto/algotrade/internal/domain"
)

// TradeStore is a thread-safe in-memory log of executed trades,
// keyed by symbol. Trades are append-only and chronological.
type TradeStore struct {
	mu     sync.RWMutex
	trades map[string][]*domain.Trade // symbol → trades (chronological)
}

// NewTradeStore creates an empty TradeStore.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		trades: make(map[string][]*domain.Trade),
	}
}

// Append adds a trade to the symbol's chronological list.
func (s *TradeStore) Append(symbol string, t *domain.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades[symbol] = append(s.trades[symbol], t)
}

// BySymbol returns all trades for a symbol in chronological order.
// Returns an empty slice if no trades exist for the symbol.
func (s *TradeStore) BySymbol(symbol string) []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := s.trades[symbol]
	if trades == nil {
		return []*domain.Trade{}
	}

	// Return a copy to avoid callers mutating the internal slice.
	result := make([]*domain.Trade, len(trades))
	copy(result, trades)
	return result
}

// Recent returns up to n of the most recent trades for a symbol,
// oldest first.
func (s *TradeStore) Recent(symbol string, n int) []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := s.trades[symbol]
	if n <= 0 || len(trades) == 0 {
		return []*domain.Trade{}
	}
	if n > len(trades) {
		n = len(trades)
	}
	result := make([]*domain.Trade, n)
	copy(result, trades[len(trades)-n:])
	return result
}

// Since returns all trades for a symbol executed at or after cutoff,
// oldest first.
func (s *TradeStore) Since(symbol string, cutoff time.Time) []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := s.trades[symbol]
	result := []*domain.Trade{}
	// Trades are chronological; scan backwards until before the cutoff.
	start := len(trades)
	for start > 0 && !trades[start-1].ExecutedAt.Before(cutoff) {
		start--
	}
	result = append(result, trades[start:]...)
	return result
}

// Count returns the number of trades recorded for a symbol.
func (s *TradeStore) Count(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trades[symbol])
}
