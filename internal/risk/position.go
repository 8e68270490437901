package risk

import (
	"sync"

	"github.com/psegatto/algotrade/internal/domain"
)

// PositionManager owns the signed net position per symbol. Buy fills
// increase the position, sell fills decrease it. One mutex guards both
// the fill path and the limit check, so an approval can never race a
// concurrent position update for the same symbol: the check-then-act
// in WithinLimit reads the position under the same lock that ApplyFill
// writes it.
type PositionManager struct {
	mu        sync.Mutex
	positions map[string]int64
}

// NewPositionManager creates a PositionManager with no positions.
func NewPositionManager() *PositionManager {
	return &PositionManager{
		positions: make(map[string]int64),
	}
}

// ApplyFill adjusts the symbol's position by the executed quantity of
// an order. Called once per order that produced at least one trade,
// with the quantity actually filled, not the quantity requested.
func (p *PositionManager) ApplyFill(symbol string, side domain.OrderSide, quantity int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if side == domain.OrderSideBuy {
		p.positions[symbol] += quantity
	} else {
		p.positions[symbol] -= quantity
	}
}

// Position returns the current signed position for a symbol.
// Symbols never traded have position zero.
func (p *PositionManager) Position(symbol string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positions[symbol]
}

// WithinLimit reports whether an order of the given side and quantity
// would keep the symbol's absolute position at or below ceiling,
// assuming the order fills completely. The projection and the read
// happen under the position lock.
func (p *PositionManager) WithinLimit(symbol string, side domain.OrderSide, quantity, ceiling int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	projected := p.positions[symbol]
	if side == domain.OrderSideBuy {
		projected += quantity
	} else {
		projected -= quantity
	}
	if projected < 0 {
		projected = -projected
	}
	return projected <= ceiling
}

// All returns a copy of every symbol's position.
func (p *PositionManager) All() map[string]int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int64, len(p.positions))
	for s, q := range p.positions {
		out[s] = q
	}
	return out
}
