package risk

import "github.com/psegatto/algotrade/internal/domain"

// MaxPositionLimit approves orders against a maximum absolute position
// for one managed symbol. The check is pessimistic: it assumes the
// order fills its full requested quantity, not the quantity actually
// available in the book. Orders for other symbols are always approved.
type MaxPositionLimit struct {
	positions *PositionManager
	symbol    string
	ceiling   int64
}

// NewMaxPositionLimit creates a limit for the given symbol and ceiling.
func NewMaxPositionLimit(positions *PositionManager, symbol string, ceiling int64) *MaxPositionLimit {
	return &MaxPositionLimit{
		positions: positions,
		symbol:    symbol,
		ceiling:   ceiling,
	}
}

// Approve reports whether the order passes the position check.
func (l *MaxPositionLimit) Approve(order *domain.Order) bool {
	if order.Symbol != l.symbol {
		return true
	}
	return l.positions.WithinLimit(order.Symbol, order.Side, order.Quantity, l.ceiling)
}
