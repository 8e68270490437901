package engine

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/psegatto/algotrade/internal/domain"
)

func TestProperty_PriceCompatibilityDeterminesMatching(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sellPrice := rapid.Int64Range(1, 10000).Draw(t, "sellPrice")
		buyPrice := rapid.Int64Range(1, 10000).Draw(t, "buyPrice")
		qty := rapid.Int64Range(1, 100).Draw(t, "qty")

		book := NewOrderBook(testSymbol)
		book.Submit(newLimit(domain.OrderSideSell, sellPrice, qty))
		trades := book.Submit(newLimit(domain.OrderSideBuy, buyPrice, qty))

		shouldMatch := buyPrice >= sellPrice

		if shouldMatch && len(trades) == 0 {
			t.Fatalf("expected trade when buy=%d >= sell=%d, but got none", buyPrice, sellPrice)
		}
		if !shouldMatch && len(trades) != 0 {
			t.Fatalf("expected no trade when buy=%d < sell=%d, but got %d trades", buyPrice, sellPrice, len(trades))
		}

		// When no match, the book must remain uncrossed.
		if !shouldMatch {
			bestBuy, hasBuy := book.BestBuy()
			bestSell, hasSell := book.BestSell()
			if hasBuy && hasSell && bestBuy.Price >= bestSell.Price {
				t.Fatalf("book is crossed: best buy %d >= best sell %d", bestBuy.Price, bestSell.Price)
			}
		}
	})
}

func TestProperty_ExecutionPriceIsRestingPrice(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// Generate prices where the incoming buy crosses the resting sell.
		sellPrice := rapid.Int64Range(1, 5000).Draw(t, "sellPrice")
		premium := rapid.Int64Range(0, 5000).Draw(t, "premium")
		buyPrice := sellPrice + premium
		qty := rapid.Int64Range(1, 100).Draw(t, "qty")

		book := NewOrderBook(testSymbol)
		book.Submit(newLimit(domain.OrderSideSell, sellPrice, qty))
		trades := book.Submit(newLimit(domain.OrderSideBuy, buyPrice, qty))

		if len(trades) != 1 {
			t.Fatalf("expected exactly 1 trade, got %d", len(trades))
		}
		if trades[0].Price != sellPrice {
			t.Fatalf("trade price %d, want resting price %d (incoming was %d)",
				trades[0].Price, sellPrice, buyPrice)
		}
	})
}

func TestProperty_QuantityConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		restingQty := rapid.Int64Range(1, 200).Draw(t, "restingQty")
		incomingQty := rapid.Int64Range(1, 200).Draw(t, "incomingQty")
		price := rapid.Int64Range(1, 10000).Draw(t, "price")

		book := NewOrderBook(testSymbol)
		resting := newLimit(domain.OrderSideSell, price, restingQty)
		book.Submit(resting)
		incoming := newLimit(domain.OrderSideBuy, price, incomingQty)
		trades := book.Submit(incoming)

		want := restingQty
		if incomingQty < want {
			want = incomingQty
		}

		if len(trades) != 1 {
			t.Fatalf("expected 1 trade, got %d", len(trades))
		}
		if trades[0].Quantity != want {
			t.Fatalf("trade quantity %d, want min(%d, %d)=%d", trades[0].Quantity, incomingQty, restingQty, want)
		}
		if resting.Remaining != restingQty-want {
			t.Fatalf("resting remaining %d, want %d", resting.Remaining, restingQty-want)
		}
		if incoming.Remaining != incomingQty-want {
			t.Fatalf("incoming remaining %d, want %d", incoming.Remaining, incomingQty-want)
		}
		if resting.Remaining < 0 || incoming.Remaining < 0 {
			t.Fatalf("negative remaining quantity")
		}
	})
}

func TestProperty_SweepConservesRestingQuantity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "n")
		var total int64
		book := NewOrderBook(testSymbol)
		for i := 0; i < n; i++ {
			price := rapid.Int64Range(1, 100).Draw(t, "price")
			qty := rapid.Int64Range(1, 50).Draw(t, "qty")
			book.Submit(newLimit(domain.OrderSideSell, price, qty))
			total += qty
		}

		// A market buy for everything consumes every resting sell,
		// and the sum of trade quantities equals the resting total.
		trades := book.Submit(newMarket(domain.OrderSideBuy, total))

		var traded int64
		for _, tr := range trades {
			if tr.Quantity <= 0 {
				t.Fatalf("trade with non-positive quantity %d", tr.Quantity)
			}
			if tr.Price <= 0 {
				t.Fatalf("trade with non-positive price %d", tr.Price)
			}
			traded += tr.Quantity
		}
		if traded != total {
			t.Fatalf("traded %d, want %d", traded, total)
		}
		if book.SellCount() != 0 {
			t.Fatalf("expected empty sell side, %d orders left", book.SellCount())
		}
		if book.ActiveOrderCount() != 0 {
			t.Fatalf("expected empty index, %d entries left", book.ActiveOrderCount())
		}

		// Trades execute in price order, best first.
		for i := 1; i < len(trades); i++ {
			if trades[i].Price < trades[i-1].Price {
				t.Fatalf("trades out of price order: %d before %d", trades[i-1].Price, trades[i].Price)
			}
		}
	})
}

func TestProperty_NoZeroQuantityResting(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ops := rapid.IntRange(1, 30).Draw(t, "ops")
		book := NewOrderBook(testSymbol)

		for i := 0; i < ops; i++ {
			side := domain.OrderSideBuy
			if rapid.Bool().Draw(t, "sell") {
				side = domain.OrderSideSell
			}
			typ := domain.OrderTypeLimit
			price := rapid.Int64Range(90, 110).Draw(t, "price")
			if rapid.Bool().Draw(t, "market") {
				typ = domain.OrderTypeMarket
				price = 0
			}
			qty := rapid.Int64Range(1, 20).Draw(t, "qty")
			book.Submit(domain.NewOrder(testSymbol, typ, side, price, qty))
		}

		for _, level := range book.TopBuys(1000) {
			if level.TotalQuantity <= 0 {
				t.Fatalf("buy level with non-positive quantity: %+v", level)
			}
		}
		for _, level := range book.TopSells(1000) {
			if level.TotalQuantity <= 0 {
				t.Fatalf("sell level with non-positive quantity: %+v", level)
			}
		}
		if book.ActiveOrderCount() != book.BuyCount()+book.SellCount() {
			t.Fatalf("index size %d != resting orders %d",
				book.ActiveOrderCount(), book.BuyCount()+book.SellCount())
		}
	})
}
