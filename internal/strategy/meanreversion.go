package strategy

import (
	"github.com/psegatto/algotrade/internal/domain"
)

// MeanReversion generates limit orders when the quoted price strays
// far enough from its moving average: buy when the ask drops below the
// average by the configured threshold, sell when the bid rises above
// it. It keeps a rolling window of mid prices per evaluation and emits
// nothing until the window is full.
//
// Not safe for concurrent use; the pipeline's strategy stage calls
// Evaluate from a single goroutine.
type MeanReversion struct {
	symbol       string
	lookback     int
	thresholdBps int64 // basis points around the moving average
	orderQty     int64
	history      []int64 // mid prices, oldest first
}

// NewMeanReversion creates a mean-reversion strategy for one symbol.
func NewMeanReversion(symbol string, lookback int, thresholdBps, orderQty int64) *MeanReversion {
	return &MeanReversion{
		symbol:       symbol,
		lookback:     lookback,
		thresholdBps: thresholdBps,
		orderQty:     orderQty,
		history:      make([]int64, 0, lookback),
	}
}

// Evaluate folds the event into the price history and returns at most
// one candidate order. Events for other symbols are ignored.
func (s *MeanReversion) Evaluate(md domain.MarketData) []*domain.Order {
	if md.Symbol != s.symbol {
		return nil
	}

	s.history = append(s.history, md.Mid())
	if len(s.history) > s.lookback {
		s.history = s.history[1:]
	}
	if len(s.history) < s.lookback {
		return nil
	}

	var sum int64
	for _, mid := range s.history {
		sum += mid
	}
	n := int64(len(s.history))

	// Compare in integer space: ask < avg×(1 − bps/10000) becomes
	// ask×n×10000 < sum×(10000 − bps), avoiding division.
	if md.AskPrice*n*10000 < sum*(10000-s.thresholdBps) {
		return []*domain.Order{
			domain.NewOrder(s.symbol, domain.OrderTypeLimit, domain.OrderSideBuy, md.AskPrice, s.orderQty),
		}
	}
	if md.BidPrice*n*10000 > sum*(10000+s.thresholdBps) {
		return []*domain.Order{
			domain.NewOrder(s.symbol, domain.OrderTypeLimit, domain.OrderSideSell, md.BidPrice, s.orderQty),
		}
	}
	return nil
}
