package engine

import (
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/google/uuid"

	"github.com/psegatto/algotrade/internal/domain"
)

// BookEntry represents a single order resting on the book.
type BookEntry struct {
	Price     int64
	CreatedAt time.Time
	OrderID   string
	Order     *domain.Order
}

// PriceLevel represents an aggregated price level in the order book.
type PriceLevel struct {
	Price         int64
	TotalQuantity int64
	OrderCount    int
}

// Quote is a snapshot of the best resting order on one side.
type Quote struct {
	OrderID  string
	Price    int64
	Quantity int64
}

// buyLess defines ordering for the buy side: price descending, then
// created_at ascending, then order_id ascending. Min() therefore
// returns the best bid (highest price, earliest arrival). Ties at the
// same price are strictly first-in-first-out.
func buyLess(a, b BookEntry) bool {
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OrderID < b.OrderID
}

// sellLess defines ordering for the sell side: price ascending, then
// created_at ascending, then order_id ascending. Min() returns the
// best ask (lowest price, earliest arrival).
func sellLess(a, b BookEntry) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OrderID < b.OrderID
}

// OrderBook is the per-symbol matching engine. It owns two B-trees for
// the buy and sell sides plus an index of resting orders by ID. All
// mutation happens in Submit under the book's mutex; read accessors
// take the same mutex and return copies, never live internals.
type OrderBook struct {
	symbol string
	mu     sync.Mutex
	buys   *btree.BTreeG[BookEntry]
	sells  *btree.BTreeG[BookEntry]
	index  map[string]BookEntry // order_id → entry
}

// NewOrderBook creates an order book for the given symbol.
func NewOrderBook(symbol string) *OrderBook {
	const degree = 32
	return &OrderBook{
		symbol: symbol,
		buys:   btree.NewG[BookEntry](degree, buyLess),
		sells:  btree.NewG[BookEntry](degree, sellLess),
		index:  make(map[string]BookEntry),
	}
}

// Symbol returns the symbol this book matches.
func (b *OrderBook) Symbol() string {
	return b.symbol
}

// Submit runs an incoming order through the matching engine and returns
// the trades it produced, in execution order. The whole pass (index
// registration, the match loop, and resting or dropping the remainder)
// happens inside one critical section, so no two orders for the same
// symbol ever interleave.
//
// A limit order matches while its price crosses the best opposite
// price; a market order matches while any opposite liquidity exists.
// Each match fills min(incoming remaining, resting remaining) at the
// resting order's price (price improvement goes to the passive side).
// Fully filled resting orders leave their side and the index with the
// fill that consumed them.
//
// A limit remainder rests on its own side. A market remainder is
// dropped: market orders are immediate-or-cancel and never rest, so
// leftover quantity means the book simply ran out of liquidity.
func (b *OrderBook) Submit(order *domain.Order) []*domain.Trade {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := BookEntry{
		Price:     order.Price,
		CreatedAt: order.CreatedAt,
		OrderID:   order.OrderID,
		Order:     order,
	}
	b.index[order.OrderID] = entry

	var trades []*domain.Trade
	executedAt := time.Now()

	for order.Remaining > 0 {
		var best BookEntry
		var found bool
		if order.Side == domain.OrderSideBuy {
			best, found = b.sells.Min()
		} else {
			best, found = b.buys.Min()
		}
		if !found {
			break
		}

		// Price compatibility: market orders take any price, limit
		// orders must cross.
		if order.Type == domain.OrderTypeLimit {
			if order.Side == domain.OrderSideBuy && order.Price < best.Price {
				break
			}
			if order.Side == domain.OrderSideSell && order.Price > best.Price {
				break
			}
		}

		resting := best.Order

		fillQty := order.Remaining
		if resting.Remaining < fillQty {
			fillQty = resting.Remaining
		}

		order.Remaining -= fillQty
		order.Filled += fillQty
		resting.Remaining -= fillQty
		resting.Filled += fillQty

		trades = append(trades, &domain.Trade{
			TradeID:    uuid.New().String(),
			OrderID:    order.OrderID,
			Symbol:     b.symbol,
			Price:      resting.Price, // execution at the resting order's price
			Quantity:   fillQty,
			Side:       order.Side,
			ExecutedAt: executedAt,
		})

		if resting.Remaining == 0 {
			if resting.Side == domain.OrderSideBuy {
				b.buys.Delete(best)
			} else {
				b.sells.Delete(best)
			}
			delete(b.index, resting.OrderID)
		}
	}

	if order.Remaining > 0 && order.Type == domain.OrderTypeLimit {
		if order.Side == domain.OrderSideBuy {
			b.buys.ReplaceOrInsert(entry)
		} else {
			b.sells.ReplaceOrInsert(entry)
		}
		return trades
	}

	// Fully filled, or a market remainder: nothing rests, so the order
	// must not linger in the active index either.
	delete(b.index, order.OrderID)
	return trades
}

// BestBuy returns a snapshot of the highest-priority resting buy.
func (b *OrderBook) BestBuy() (Quote, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return quoteOf(b.buys.Min())
}

// BestSell returns a snapshot of the highest-priority resting sell.
func (b *OrderBook) BestSell() (Quote, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return quoteOf(b.sells.Min())
}

func quoteOf(entry BookEntry, ok bool) (Quote, bool) {
	if !ok {
		return Quote{}, false
	}
	return Quote{
		OrderID:  entry.OrderID,
		Price:    entry.Price,
		Quantity: entry.Order.Remaining,
	}, true
}

// BuyCount returns the number of individual resting buy orders.
func (b *OrderBook) BuyCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buys.Len()
}

// SellCount returns the number of individual resting sell orders.
func (b *OrderBook) SellCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sells.Len()
}

// ActiveOrderCount returns the number of resting orders in the index.
func (b *OrderBook) ActiveOrderCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.index)
}

// ActiveOrder returns a snapshot of a resting order by ID.
func (b *OrderBook) ActiveOrder(orderID string) (Quote, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.index[orderID]
	if !ok {
		return Quote{}, false
	}
	return Quote{
		OrderID:  entry.OrderID,
		Price:    entry.Price,
		Quantity: entry.Order.Remaining,
	}, true
}

// TopBuys returns up to n aggregated price levels from the buy side,
// ordered by price descending.
func (b *OrderBook) TopBuys(n int) []PriceLevel {
	b.mu.Lock()
	defer b.mu.Unlock()
	return topLevels(b.buys, n)
}

// TopSells returns up to n aggregated price levels from the sell side,
// ordered by price ascending.
func (b *OrderBook) TopSells(n int) []PriceLevel {
	b.mu.Lock()
	defer b.mu.Unlock()
	return topLevels(b.sells, n)
}

// topLevels iterates the B-tree in order and aggregates entries into
// at most n price levels. Caller must hold the book lock.
func topLevels(tree *btree.BTreeG[BookEntry], n int) []PriceLevel {
	if n <= 0 {
		return nil
	}
	levels := make([]PriceLevel, 0, n)
	tree.Ascend(func(entry BookEntry) bool {
		if len(levels) > 0 && levels[len(levels)-1].Price == entry.Price {
			levels[len(levels)-1].TotalQuantity += entry.Order.Remaining
			levels[len(levels)-1].OrderCount++
			return true
		}
		if len(levels) >= n {
			return false
		}
		levels = append(levels, PriceLevel{
			Price:         entry.Price,
			TotalQuantity: entry.Order.Remaining,
			OrderCount:    1,
		})
		return true
	})
	return levels
}
