package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/psegatto/algotrade/internal/domain"
	"github.com/psegatto/algotrade/internal/metrics"
)

// Pipeline connects market data to execution across four stages
// (intake, strategy, risk, execution), each running on its own
// goroutine, joined by bounded channels. A full channel pushes back on
// the upstream stage instead of queueing unbounded work.
//
// For one market-data event the stages are causally ordered: the
// strategy sees the event before any of its orders reach risk, and an
// order reaches execution only after approval. Orders from one event
// go through risk in emission order. Different events overlap freely
// across stages.
//
// A panic while handling one event or one order is recovered and
// logged at that granularity; the stage keeps consuming.
type Pipeline struct {
	strategy Strategy
	risk     RiskManager
	executor OrderExecutor
	latency  *metrics.LatencyMetrics
	logger   *slog.Logger

	intake   chan domain.MarketData
	events   chan domain.MarketData
	orders   chan *domain.Order
	approved chan *domain.Order

	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a Pipeline. stageBuffer sets the capacity of each
// inter-stage channel; zero means fully synchronous hand-offs.
func New(
	strategy Strategy,
	riskMgr RiskManager,
	executor OrderExecutor,
	latency *metrics.LatencyMetrics,
	stageBuffer int,
	logger *slog.Logger,
) *Pipeline {
	if stageBuffer < 0 {
		stageBuffer = 0
	}
	return &Pipeline{
		strategy: strategy,
		risk:     riskMgr,
		executor: executor,
		latency:  latency,
		logger:   logger,
		intake:   make(chan domain.MarketData, stageBuffer),
		events:   make(chan domain.MarketData, stageBuffer),
		orders:   make(chan *domain.Order, stageBuffer),
		approved: make(chan *domain.Order, stageBuffer),
		quit:     make(chan struct{}),
	}
}

// Start launches the four stage goroutines. They stop when ctx is
// cancelled or Shutdown is called.
func (p *Pipeline) Start(ctx context.Context) {
	p.wg.Add(4)
	go p.intakeStage(ctx)
	go p.strategyStage(ctx)
	go p.riskStage(ctx)
	go p.executionStage(ctx)
}

// ProcessMarketData hands an event to the intake stage. It blocks
// while the intake channel is full (backpressure on the producer) and
// drops the event once the pipeline is shutting down.
func (p *Pipeline) ProcessMarketData(md domain.MarketData) {
	select {
	case <-p.quit:
	case p.intake <- md:
	}
}

// Shutdown stops all stages from accepting new work and waits for
// them to finish their current item. Work still sitting in stage
// channels is abandoned, not drained.
func (p *Pipeline) Shutdown() {
	p.quitOnce.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
}

func (p *Pipeline) intakeStage(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.quit:
			return
		case md := <-p.intake:
			p.logger.Debug("market data received",
				slog.String("symbol", md.Symbol),
				slog.Int64("bid", md.BidPrice),
				slog.Int64("ask", md.AskPrice),
			)
			send(ctx, p.quit, p.events, md)
		}
	}
}

func (p *Pipeline) strategyStage(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.quit:
			return
		case md := <-p.events:
			var candidates []*domain.Order
			p.guard("strategy", func() {
				candidates = p.strategy.Evaluate(md)
			})
			for _, order := range candidates {
				send(ctx, p.quit, p.orders, order)
			}
		}
	}
}

func (p *Pipeline) riskStage(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.quit:
			return
		case order := <-p.orders:
			approved := false
			p.guard("risk", func() {
				approved = p.risk.Approve(order)
			})
			if !approved {
				p.logger.Info("order rejected by risk check",
					slog.String("order_id", order.OrderID),
					slog.String("symbol", order.Symbol),
					slog.String("side", string(order.Side)),
					slog.Int64("quantity", order.Quantity),
				)
				continue
			}
			p.latency.RecordOrderCreation(order)
			send(ctx, p.quit, p.approved, order)
		}
	}
}

func (p *Pipeline) executionStage(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.quit:
			return
		case order := <-p.approved:
			p.guard("execution", func() {
				trades := p.executor.Execute(ctx, order)
				for _, t := range trades {
					p.logger.Debug("trade executed",
						slog.String("trade_id", t.TradeID),
						slog.String("symbol", t.Symbol),
						slog.Int64("price", t.Price),
						slog.Int64("quantity", t.Quantity),
					)
				}
			})
		}
	}
}

// send forwards an item downstream, giving up when the pipeline stops.
func send[T any](ctx context.Context, quit chan struct{}, ch chan T, item T) {
	select {
	case <-ctx.Done():
	case <-quit:
	case ch <- item:
	}
}

func (p *Pipeline) guard(stage string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("stage fault contained",
				slog.String("stage", stage),
				slog.Any("panic", r),
			)
		}
	}()
	fn()
}
