package service

import (
	"errors"
	"testing"
	"time"

	"github.com/psegatto/algotrade/internal/domain"
	"github.com/psegatto/algotrade/internal/engine"
	"github.com/psegatto/algotrade/internal/metrics"
	"github.com/psegatto/algotrade/internal/risk"
	"github.com/psegatto/algotrade/internal/store"
)

const testSymbol = "TESTSYM"

type fixture struct {
	exchange  *engine.Exchange
	positions *risk.PositionManager
	trades    *metrics.TradeMetrics
	latency   *metrics.LatencyMetrics
	tradeLog  *store.TradeStore
	svc       *MonitorService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		exchange:  engine.NewExchange(),
		positions: risk.NewPositionManager(),
		trades:    metrics.NewTradeMetrics(),
		latency:   metrics.NewLatencyMetrics(),
		tradeLog:  store.NewTradeStore(),
	}
	f.exchange.RegisterSymbol(testSymbol)
	f.svc = NewMonitorService(f.exchange, f.positions, f.trades, f.latency, f.tradeLog, 5*time.Minute)
	return f
}

func restingLimit(side domain.OrderSide, price, qty int64) *domain.Order {
	return domain.NewOrder(testSymbol, domain.OrderTypeLimit, side, price, qty)
}

func TestMonitorService_Book(t *testing.T) {
	f := newFixture(t)

	if _, err := f.exchange.PlaceOrder(restingLimit(domain.OrderSideBuy, 9900, 5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.exchange.PlaceOrder(restingLimit(domain.OrderSideSell, 10000, 3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := f.svc.Book(testSymbol, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Buys) != 1 || len(resp.Sells) != 1 {
		t.Fatalf("expected one level per side, got %d buys %d sells", len(resp.Buys), len(resp.Sells))
	}
	if resp.Buys[0].Price != 9900 || resp.Sells[0].Price != 10000 {
		t.Errorf("unexpected levels: buy %d sell %d", resp.Buys[0].Price, resp.Sells[0].Price)
	}
	if resp.Spread == nil || *resp.Spread != 100 {
		t.Errorf("expected spread 100, got %v", resp.Spread)
	}
	if resp.ActiveOrders != 2 {
		t.Errorf("expected 2 active orders, got %d", resp.ActiveOrders)
	}
}

func TestMonitorService_BookSpreadNilWhenOneSided(t *testing.T) {
	f := newFixture(t)

	if _, err := f.exchange.PlaceOrder(restingLimit(domain.OrderSideBuy, 9900, 5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := f.svc.Book(testSymbol, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Spread != nil {
		t.Errorf("expected nil spread with an empty sell side, got %d", *resp.Spread)
	}
}

func TestMonitorService_UnknownSymbol(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Book("NOPE", 5); !errors.Is(err, domain.ErrSymbolNotFound) {
		t.Errorf("Book: expected ErrSymbolNotFound, got %v", err)
	}
	if _, err := f.svc.Stats("NOPE"); !errors.Is(err, domain.ErrSymbolNotFound) {
		t.Errorf("Stats: expected ErrSymbolNotFound, got %v", err)
	}
	if _, err := f.svc.RecentTrades("NOPE", 5); !errors.Is(err, domain.ErrSymbolNotFound) {
		t.Errorf("RecentTrades: expected ErrSymbolNotFound, got %v", err)
	}
}

func TestMonitorService_StatsEmpty(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Stats(testSymbol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Position != 0 || resp.CashFlow != 0 || resp.TradeCount != 0 {
		t.Errorf("expected zeroed stats, got %+v", resp)
	}
	if resp.LastPrice != nil {
		t.Errorf("expected nil last price before any trade, got %d", *resp.LastPrice)
	}
	if resp.VWAP != nil {
		t.Errorf("expected nil VWAP before any trade, got %d", *resp.VWAP)
	}
}

func TestMonitorService_StatsAggregates(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	f.positions.ApplyFill(testSymbol, domain.OrderSideBuy, 3)
	f.trades.RecordOrder(restingLimit(domain.OrderSideBuy, 10000, 10))
	t1 := &domain.Trade{
		TradeID: "t1", Symbol: testSymbol, Price: 10000, Quantity: 2,
		Side: domain.OrderSideBuy, ExecutedAt: now,
	}
	t2 := &domain.Trade{
		TradeID: "t2", Symbol: testSymbol, Price: 10100, Quantity: 1,
		Side: domain.OrderSideBuy, ExecutedAt: now,
	}
	f.trades.RecordTrade(t1)
	f.trades.RecordTrade(t2)
	f.tradeLog.Append(testSymbol, t1)
	f.tradeLog.Append(testSymbol, t2)

	resp, err := f.svc.Stats(testSymbol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Position != 3 {
		t.Errorf("expected position 3, got %d", resp.Position)
	}
	if resp.CashFlow != -(10000*2 + 10100*1) {
		t.Errorf("expected cash flow %d, got %d", -(10000*2 + 10100*1), resp.CashFlow)
	}
	if resp.FillRatio != 0.3 {
		t.Errorf("expected fill ratio 0.3, got %v", resp.FillRatio)
	}
	if resp.LastPrice == nil || *resp.LastPrice != 10100 {
		t.Errorf("expected last price 10100, got %v", resp.LastPrice)
	}
	// VWAP = (10000×2 + 10100×1) / 3 = 10033 (integer cents).
	if resp.VWAP == nil || *resp.VWAP != 10033 {
		t.Errorf("expected VWAP 10033, got %v", resp.VWAP)
	}
	if resp.TradeCount != 2 {
		t.Errorf("expected trade count 2, got %d", resp.TradeCount)
	}
}

func TestMonitorService_VWAPFallsBackToLastPrice(t *testing.T) {
	f := newFixture(t)

	old := &domain.Trade{
		TradeID: "t1", Symbol: testSymbol, Price: 9800, Quantity: 1,
		Side: domain.OrderSideSell, ExecutedAt: time.Now().Add(-time.Hour),
	}
	f.trades.RecordTrade(old)
	// The only logged trade sits outside the VWAP window.
	f.tradeLog.Append(testSymbol, old)

	resp, err := f.svc.Stats(testSymbol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.VWAP == nil || *resp.VWAP != 9800 {
		t.Errorf("expected VWAP to fall back to last price 9800, got %v", resp.VWAP)
	}
}

func TestMonitorService_RecentTrades(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	for i := 0; i < 5; i++ {
		f.tradeLog.Append(testSymbol, &domain.Trade{
			TradeID: "t", Symbol: testSymbol, Price: int64(100 + i), Quantity: 1,
			Side: domain.OrderSideBuy, ExecutedAt: now.Add(time.Duration(i) * time.Second),
		})
	}

	got, err := f.svc.RecentTrades(testSymbol, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(got))
	}
	if got[0].Price != 103 || got[1].Price != 104 {
		t.Errorf("expected the two most recent trades oldest first, got %d, %d", got[0].Price, got[1].Price)
	}
}
