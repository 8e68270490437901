package pipeline

import (
	"context"
	"log/slog"

	"github.com/psegatto/algotrade/internal/domain"
	"github.com/psegatto/algotrade/internal/engine"
	"github.com/psegatto/algotrade/internal/metrics"
	"github.com/psegatto/algotrade/internal/risk"
	"github.com/psegatto/algotrade/internal/store"
)

// OrderExecutor submits an order for execution and returns the trades
// it produced. An empty result means the order didn't execute (dropped,
// throttled, or no liquidity for a market order).
type OrderExecutor interface {
	Execute(ctx context.Context, order *domain.Order) []*domain.Trade
}

// Strategy turns a market-data event into zero or more candidate
// orders. Implementations may keep their own history but must not
// block indefinitely; the pipeline's strategy stage calls them one
// event at a time.
type Strategy interface {
	Evaluate(md domain.MarketData) []*domain.Order
}

// RiskManager approves or rejects a candidate order. Rejection is a
// normal outcome, not an error.
type RiskManager interface {
	Approve(order *domain.Order) bool
}

// ExchangeExecutor places orders on the exchange and settles the
// bookkeeping for fills: position updates, trade metrics, latency
// metrics, and the trade log.
type ExchangeExecutor struct {
	exchange  *engine.Exchange
	positions *risk.PositionManager
	trades    *metrics.TradeMetrics
	latency   *metrics.LatencyMetrics
	tradeLog  *store.TradeStore
	logger    *slog.Logger
}

// NewExchangeExecutor creates an ExchangeExecutor.
func NewExchangeExecutor(
	exchange *engine.Exchange,
	positions *risk.PositionManager,
	trades *metrics.TradeMetrics,
	latency *metrics.LatencyMetrics,
	tradeLog *store.TradeStore,
	logger *slog.Logger,
) *ExchangeExecutor {
	return &ExchangeExecutor{
		exchange:  exchange,
		positions: positions,
		trades:    trades,
		latency:   latency,
		tradeLog:  tradeLog,
		logger:    logger,
	}
}

// Execute records the order, places it on the exchange, and on a fill
// applies the executed quantity to the position and records each
// trade. Rejected symbols produce no trades and no position change.
func (e *ExchangeExecutor) Execute(_ context.Context, order *domain.Order) []*domain.Trade {
	e.trades.RecordOrder(order)

	trades, err := e.exchange.PlaceOrder(order)
	if err != nil {
		e.logger.Warn("order rejected by exchange",
			slog.String("order_id", order.OrderID),
			slog.String("symbol", order.Symbol),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if len(trades) == 0 {
		return nil
	}

	// Position moves by what actually filled, not what was requested.
	e.positions.ApplyFill(order.Symbol, order.Side, order.Filled)
	for _, t := range trades {
		e.trades.RecordTrade(t)
		e.latency.RecordTradeExecution(t)
		e.tradeLog.Append(t.Symbol, t)
	}
	return trades
}
