package feed

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/psegatto/algotrade/internal/domain"
)

// Sink consumes generated market-data events, one at a time.
type Sink interface {
	ProcessMarketData(md domain.MarketData)
}

// Generator produces a synthetic top-of-book quote stream for one
// symbol: the bid follows a random walk in cent steps, the ask sits a
// random 1–5 cent spread above it, and both sides get random depth.
// Prices are floored at one cent.
type Generator struct {
	symbol   string
	interval time.Duration
	sink     Sink
	rng      *rand.Rand
	logger   *slog.Logger

	bid int64 // cents
}

// NewGenerator creates a generator starting near initialPrice (cents).
func NewGenerator(symbol string, initialPrice int64, interval time.Duration, sink Sink, logger *slog.Logger) *Generator {
	bid := initialPrice - 1
	if bid < 1 {
		bid = 1
	}
	return &Generator{
		symbol:   symbol,
		interval: interval,
		sink:     sink,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logger,
		bid:      bid,
	}
}

// Run ticks at the configured interval, publishing one event per tick
// to the sink, until ctx is cancelled. The sink call happens on the
// generator's goroutine, so a slow pipeline pushes back on the feed.
func (g *Generator) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	g.logger.Info("market data generator started",
		slog.String("symbol", g.symbol),
		slog.Duration("interval", g.interval),
	)

	for {
		select {
		case <-ctx.Done():
			g.logger.Info("market data generator stopped", slog.String("symbol", g.symbol))
			return
		case ts := <-ticker.C:
			g.sink.ProcessMarketData(g.next(ts))
		}
	}
}

// next advances the random walk and builds the event.
func (g *Generator) next(ts time.Time) domain.MarketData {
	g.bid += g.rng.Int63n(11) - 5 // ±5 cents
	if g.bid < 1 {
		g.bid = 1
	}
	ask := g.bid + 1 + g.rng.Int63n(5) // spread of 1–5 cents

	return domain.MarketData{
		Symbol:      g.symbol,
		BidPrice:    g.bid,
		AskPrice:    ask,
		BidQuantity: 100 + g.rng.Int63n(500),
		AskQuantity: 100 + g.rng.Int63n(500),
		Timestamp:   ts,
	}
}
