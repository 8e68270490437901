package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/psegatto/algotrade/internal/domain"
)

// Throttler wraps an OrderExecutor with permit-pool admission control:
// a pool of N permits, refilled to full every interval by a background
// ticker. Execute takes one permit per order, waiting at most one
// interval; on timeout the order is dropped with an empty result, not
// queued or retried. Bursts of up to N orders pass instantaneously,
// then callers stall until the next refill. This is a hard cap on
// order rate, not a smoothing limiter.
type Throttler struct {
	delegate OrderExecutor
	permits  chan struct{}
	size     int
	interval time.Duration
	logger   *slog.Logger
}

// NewThrottler creates a Throttler with a full permit pool. Start must
// be called for permits to replenish.
func NewThrottler(delegate OrderExecutor, permits int, interval time.Duration, logger *slog.Logger) *Throttler {
	if permits <= 0 {
		permits = 1
	}
	t := &Throttler{
		delegate: delegate,
		permits:  make(chan struct{}, permits),
		size:     permits,
		interval: interval,
		logger:   logger,
	}
	for i := 0; i < permits; i++ {
		t.permits <- struct{}{}
	}
	return t
}

// Start launches the refill goroutine. It ticks at the configured
// interval, topping the pool back up to full, and stops when ctx is
// cancelled.
func (t *Throttler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.refill()
			}
		}
	}()
}

// refill tops the permit pool back up to capacity.
func (t *Throttler) refill() {
	for {
		select {
		case t.permits <- struct{}{}:
		default:
			return
		}
	}
}

// Execute acquires a permit and delegates, or drops the order after
// waiting one full interval without a permit.
func (t *Throttler) Execute(ctx context.Context, order *domain.Order) []*domain.Trade {
	timer := time.NewTimer(t.interval)
	defer timer.Stop()

	select {
	case <-t.permits:
		return t.delegate.Execute(ctx, order)
	case <-timer.C:
		t.logger.Info("order throttled",
			slog.String("order_id", order.OrderID),
			slog.String("symbol", order.Symbol),
		)
		return nil
	case <-ctx.Done():
		return nil
	}
}

// AvailablePermits returns the number of permits currently in the pool.
func (t *Throttler) AvailablePermits() int {
	return len(t.permits)
}
