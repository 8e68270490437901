package service

import (
	"time"

	"github.com/psegatto/algotrade/internal/domain"
	"github.com/psegatto/algotrade/internal/engine"
	"github.com/psegatto/algotrade/internal/metrics"
	"github.com/psegatto/algotrade/internal/risk"
	"github.com/psegatto/algotrade/internal/store"
)

// BookResponse is a point-in-time view of one symbol's book.
type BookResponse struct {
	Symbol       string
	Buys         []engine.PriceLevel
	Sells        []engine.PriceLevel
	Spread       *int64 // nil if either side empty
	ActiveOrders int
	SnapshotAt   time.Time
}

// StatsResponse aggregates per-symbol trading state for inspection.
type StatsResponse struct {
	Symbol          string
	Position        int64
	CashFlow        int64 // cents, signed
	OrderedQuantity int64
	FilledQuantity  int64
	FillRatio       float64
	LastPrice       *int64 // nil when no trades ever
	VWAP            *int64 // nil when no trades in window and no fallback
	Window          string
	TradeCount      int
	AvgFillLatency  time.Duration
	MaxFillLatency  time.Duration
}

// MonitorService exposes read-only views over the exchange, positions,
// and metrics. It is an inspection surface, not a control path: every
// accessor it touches returns copies under the owner's lock.
type MonitorService struct {
	exchange   *engine.Exchange
	positions  *risk.PositionManager
	trades     *metrics.TradeMetrics
	latency    *metrics.LatencyMetrics
	tradeLog   *store.TradeStore
	vwapWindow time.Duration
}

// NewMonitorService creates a MonitorService.
func NewMonitorService(
	exchange *engine.Exchange,
	positions *risk.PositionManager,
	trades *metrics.TradeMetrics,
	latency *metrics.LatencyMetrics,
	tradeLog *store.TradeStore,
	vwapWindow time.Duration,
) *MonitorService {
	return &MonitorService{
		exchange:   exchange,
		positions:  positions,
		trades:     trades,
		latency:    latency,
		tradeLog:   tradeLog,
		vwapWindow: vwapWindow,
	}
}

// Book returns the aggregated depth for a symbol, up to levels price
// levels per side. Returns domain.ErrSymbolNotFound for symbols the
// exchange doesn't trade.
func (s *MonitorService) Book(symbol string, levels int) (*BookResponse, error) {
	book, ok := s.exchange.Book(symbol)
	if !ok {
		return nil, domain.ErrSymbolNotFound
	}

	resp := &BookResponse{
		Symbol:       symbol,
		Buys:         book.TopBuys(levels),
		Sells:        book.TopSells(levels),
		ActiveOrders: book.ActiveOrderCount(),
		SnapshotAt:   time.Now(),
	}
	if len(resp.Buys) > 0 && len(resp.Sells) > 0 {
		spread := resp.Sells[0].Price - resp.Buys[0].Price
		resp.Spread = &spread
	}
	return resp, nil
}

// Stats returns position, cash flow, fill and latency statistics for a
// symbol, plus a VWAP reference price over the configured window. VWAP
// falls back to the last trade's price when the window is empty, and
// is nil when the symbol never traded.
func (s *MonitorService) Stats(symbol string) (*StatsResponse, error) {
	if _, ok := s.exchange.Book(symbol); !ok {
		return nil, domain.ErrSymbolNotFound
	}

	summary := s.latency.Summary(symbol)
	resp := &StatsResponse{
		Symbol:          symbol,
		Position:        s.positions.Position(symbol),
		CashFlow:        s.trades.CashFlow(symbol),
		OrderedQuantity: s.trades.OrderedQuantity(symbol),
		FilledQuantity:  s.trades.FilledQuantity(symbol),
		FillRatio:       s.trades.FillRatio(symbol),
		Window:          s.vwapWindow.String(),
		TradeCount:      s.tradeLog.Count(symbol),
		AvgFillLatency:  summary.Average(),
		MaxFillLatency:  summary.Max,
	}

	if last, ok := s.trades.LastPrice(symbol); ok {
		resp.LastPrice = &last
	}

	windowTrades := s.tradeLog.Since(symbol, time.Now().Add(-s.vwapWindow))
	var sumPriceQty, sumQty int64
	for _, t := range windowTrades {
		sumPriceQty += t.Price * t.Quantity
		sumQty += t.Quantity
	}
	switch {
	case sumQty > 0:
		vwap := sumPriceQty / sumQty
		resp.VWAP = &vwap
	case resp.LastPrice != nil:
		// No trades in the window, fall back to the last trade.
		resp.VWAP = resp.LastPrice
	}

	return resp, nil
}

// RecentTrades returns up to n of the symbol's most recent trades.
func (s *MonitorService) RecentTrades(symbol string, n int) ([]*domain.Trade, error) {
	if _, ok := s.exchange.Book(symbol); !ok {
		return nil, domain.ErrSymbolNotFound
	}
	return s.tradeLog.Recent(symbol, n), nil
}
