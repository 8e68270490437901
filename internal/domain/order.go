package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderType distinguishes limit orders from market orders.
type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

// OrderSide indicates whether an order buys or sells.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// Order is a single instruction submitted to the matching engine.
// Identity, side, type and price are fixed at creation; Remaining and
// Filled are mutated only by the order book while it holds the book's
// lock. Remaining never goes negative: the matching loop always fills
// min(incoming remaining, resting remaining).
type Order struct {
	OrderID   string
	Symbol    string
	Type      OrderType
	Side      OrderSide
	Price     int64 // cents, 0 for market orders
	Quantity  int64 // requested quantity, never changes
	Remaining int64
	Filled    int64
	CreatedAt time.Time
}

// NewOrder creates an order with a fresh ID and creation timestamp.
func NewOrder(symbol string, typ OrderType, side OrderSide, price, quantity int64) *Order {
	return &Order{
		OrderID:   uuid.New().String(),
		Symbol:    symbol,
		Type:      typ,
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		Remaining: quantity,
		CreatedAt: time.Now(),
	}
}
