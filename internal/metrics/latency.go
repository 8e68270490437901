package metrics

import (
	"sync"
	"time"

	"github.com/psegatto/algotrade/internal/domain"
)

// LatencySummary aggregates order-to-first-fill latencies for a symbol.
type LatencySummary struct {
	Count int64
	Total time.Duration
	Max   time.Duration
}

// Average returns the mean latency, or 0 when nothing was recorded.
func (s LatencySummary) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// LatencyMetrics measures the time from an order passing the risk
// check to its first fill. Creation timestamps are kept by order ID
// until the first trade referencing that order arrives; later trades
// from the same order don't re-count.
type LatencyMetrics struct {
	mu        sync.Mutex
	createdAt map[string]time.Time // order_id → creation time
	summaries map[string]LatencySummary
}

// NewLatencyMetrics creates an empty LatencyMetrics.
func NewLatencyMetrics() *LatencyMetrics {
	return &LatencyMetrics{
		createdAt: make(map[string]time.Time),
		summaries: make(map[string]LatencySummary),
	}
}

// RecordOrderCreation registers the order's creation timestamp.
func (m *LatencyMetrics) RecordOrderCreation(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createdAt[order.OrderID] = order.CreatedAt
}

// RecordTradeExecution folds a trade's execution time into the
// symbol's latency summary, matched to the taking order by ID.
// Trades for unregistered orders are ignored.
func (m *LatencyMetrics) RecordTradeExecution(trade *domain.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()

	created, ok := m.createdAt[trade.OrderID]
	if !ok {
		return
	}
	delete(m.createdAt, trade.OrderID)

	latency := trade.ExecutedAt.Sub(created)
	if latency < 0 {
		latency = 0
	}

	s := m.summaries[trade.Symbol]
	s.Count++
	s.Total += latency
	if latency > s.Max {
		s.Max = latency
	}
	m.summaries[trade.Symbol] = s
}

// Summary returns the symbol's aggregated latency statistics.
func (m *LatencyMetrics) Summary(symbol string) LatencySummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summaries[symbol]
}

// PendingOrders returns how many orders await their first fill.
func (m *LatencyMetrics) PendingOrders() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.createdAt)
}
