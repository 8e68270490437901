package metrics

import (
	"sync"

	"github.com/psegatto/algotrade/internal/domain"
)

// TradeMetrics accumulates per-symbol order and fill statistics.
// CashFlow is a signed cash-flow proxy for PnL: buys decrement it by
// price×quantity, sells increment it. It is not mark-to-market.
// Recording is fire-and-forget and never fails.
type TradeMetrics struct {
	mu        sync.Mutex
	cashFlow  map[string]int64 // cents
	ordered   map[string]int64
	filled    map[string]int64
	lastPrice map[string]int64
}

// NewTradeMetrics creates an empty TradeMetrics.
func NewTradeMetrics() *TradeMetrics {
	return &TradeMetrics{
		cashFlow:  make(map[string]int64),
		ordered:   make(map[string]int64),
		filled:    make(map[string]int64),
		lastPrice: make(map[string]int64),
	}
}

// RecordOrder adds an order's requested quantity to the symbol's
// ordered total. Called once per order dispatched to the exchange.
func (m *TradeMetrics) RecordOrder(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ordered[order.Symbol] += order.Quantity
}

// RecordTrade folds one execution into the symbol's totals.
func (m *TradeMetrics) RecordTrade(trade *domain.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.filled[trade.Symbol] += trade.Quantity
	m.lastPrice[trade.Symbol] = trade.Price

	notional := trade.Price * trade.Quantity
	if trade.Side == domain.OrderSideBuy {
		m.cashFlow[trade.Symbol] -= notional
	} else {
		m.cashFlow[trade.Symbol] += notional
	}
}

// CashFlow returns the symbol's cumulative signed cash flow in cents.
func (m *TradeMetrics) CashFlow(symbol string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cashFlow[symbol]
}

// FillRatio returns filled/ordered quantity for the symbol, or 0 when
// nothing has been ordered.
func (m *TradeMetrics) FillRatio(symbol string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ordered := m.ordered[symbol]
	if ordered == 0 {
		return 0
	}
	return float64(m.filled[symbol]) / float64(ordered)
}

// LastPrice returns the most recent execution price for the symbol.
func (m *TradeMetrics) LastPrice(symbol string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	price, ok := m.lastPrice[symbol]
	return price, ok
}

// OrderedQuantity returns the cumulative requested quantity.
func (m *TradeMetrics) OrderedQuantity(symbol string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ordered[symbol]
}

// FilledQuantity returns the cumulative executed quantity.
func (m *TradeMetrics) FilledQuantity(symbol string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filled[symbol]
}
