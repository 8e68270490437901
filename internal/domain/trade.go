package domain

import "time"

// Trade is the immutable record of a single match between an incoming
// order and a resting order. One trade is emitted per overlap, so an
// incoming order that sweeps several resting orders produces several
// trades. OrderID identifies the taking (incoming) order and Side is
// that order's side. Price is always the resting order's price.
type Trade struct {
	TradeID    string
	OrderID    string
	Symbol     string
	Price      int64 // cents
	Quantity   int64
	Side       OrderSide
	ExecutedAt time.Time
}
