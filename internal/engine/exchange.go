package engine

import (
	"fmt"
	"sync"

	"github.com/psegatto/algotrade/internal/domain"
)

// Exchange is a thread-safe registry of symbol → OrderBook. It routes
// incoming orders to the book for their symbol; the symbol check lives
// here, not in the book.
type Exchange struct {
	mu    sync.RWMutex
	books map[string]*OrderBook
}

// NewExchange creates an Exchange with no registered symbols.
func NewExchange() *Exchange {
	return &Exchange{
		books: make(map[string]*OrderBook),
	}
}

// RegisterSymbol creates an order book for the symbol if one doesn't
// already exist. Registering the same symbol twice is a no-op.
func (e *Exchange) RegisterSymbol(symbol string) {
	e.mu.RLock()
	_, ok := e.books[symbol]
	e.mu.RUnlock()
	if ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// Double-check after acquiring write lock.
	if _, ok = e.books[symbol]; ok {
		return
	}
	e.books[symbol] = NewOrderBook(symbol)
}

// PlaceOrder validates the order, routes it to its symbol's book, and
// returns the resulting trades. Orders for unregistered symbols are
// rejected with domain.ErrSymbolNotSupported, malformed orders with
// domain.ErrInvalidOrder. Rejections never reach a book.
func (e *Exchange) PlaceOrder(order *domain.Order) ([]*domain.Trade, error) {
	if err := validateOrder(order); err != nil {
		return nil, err
	}

	e.mu.RLock()
	book, ok := e.books[order.Symbol]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSymbolNotSupported, order.Symbol)
	}
	return book.Submit(order), nil
}

func validateOrder(order *domain.Order) error {
	switch order.Side {
	case domain.OrderSideBuy, domain.OrderSideSell:
	default:
		return fmt.Errorf("%w: unknown side %q", domain.ErrInvalidOrder, order.Side)
	}
	switch order.Type {
	case domain.OrderTypeLimit, domain.OrderTypeMarket:
	default:
		return fmt.Errorf("%w: unknown type %q", domain.ErrInvalidOrder, order.Type)
	}
	if order.Quantity <= 0 {
		return fmt.Errorf("%w: quantity %d", domain.ErrInvalidOrder, order.Quantity)
	}
	if order.Type == domain.OrderTypeLimit && order.Price <= 0 {
		return fmt.Errorf("%w: limit price %d", domain.ErrInvalidOrder, order.Price)
	}
	return nil
}

// Book returns the order book for a symbol, for monitoring. The book's
// own accessors are safe; callers never see unsynchronized internals.
func (e *Exchange) Book(symbol string) (*OrderBook, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	book, ok := e.books[symbol]
	return book, ok
}

// Symbols returns the registered symbols in no particular order.
func (e *Exchange) Symbols() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	symbols := make([]string, 0, len(e.books))
	for s := range e.books {
		symbols = append(symbols, s)
	}
	return symbols
}
