package feed

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/psegatto/algotrade/internal/domain"
)

type collectingSink struct {
	mu     sync.Mutex
	events []domain.MarketData
}

func (c *collectingSink) ProcessMarketData(md domain.MarketData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, md)
}

func (c *collectingSink) snapshot() []domain.MarketData {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.MarketData, len(c.events))
	copy(out, c.events)
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerator_PublishesWellFormedQuotes(t *testing.T) {
	sink := &collectingSink{}
	g := NewGenerator("AAA", 10000, time.Millisecond, sink, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.Run(ctx)
	}()

	deadline := time.After(2 * time.Second)
	for len(sink.snapshot()) < 10 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for events")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	for i, md := range sink.snapshot() {
		if md.Symbol != "AAA" {
			t.Fatalf("event %d: wrong symbol %q", i, md.Symbol)
		}
		if md.BidPrice < 1 {
			t.Errorf("event %d: bid %d below one cent floor", i, md.BidPrice)
		}
		if md.AskPrice <= md.BidPrice {
			t.Errorf("event %d: crossed quote bid=%d ask=%d", i, md.BidPrice, md.AskPrice)
		}
		if md.AskPrice-md.BidPrice > 5 {
			t.Errorf("event %d: spread %d exceeds 5 cents", i, md.AskPrice-md.BidPrice)
		}
		if md.BidQuantity < 100 || md.AskQuantity < 100 {
			t.Errorf("event %d: depth below minimum bid=%d ask=%d", i, md.BidQuantity, md.AskQuantity)
		}
		if md.Timestamp.IsZero() {
			t.Errorf("event %d: zero timestamp", i)
		}
	}
}

func TestGenerator_StopsOnContextCancel(t *testing.T) {
	sink := &collectingSink{}
	g := NewGenerator("AAA", 10000, time.Millisecond, sink, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("generator did not stop after cancel")
	}
}

func TestGenerator_FloorsBidAtOneCent(t *testing.T) {
	g := NewGenerator("AAA", 1, time.Millisecond, &collectingSink{}, discardLogger())

	// Drive the walk directly; with a starting bid at the floor the
	// walk must never produce a non-positive bid.
	for i := 0; i < 1000; i++ {
		md := g.next(time.Now())
		if md.BidPrice < 1 {
			t.Fatalf("bid %d fell below one cent", md.BidPrice)
		}
		if md.AskPrice <= md.BidPrice {
			t.Fatalf("crossed quote bid=%d ask=%d", md.BidPrice, md.AskPrice)
		}
	}
}
