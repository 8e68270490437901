package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/psegatto/algotrade/internal/domain"
	"github.com/psegatto/algotrade/internal/engine"
	"github.com/psegatto/algotrade/internal/service"
)

// MonitorHandler serves the read-only inspection endpoints.
type MonitorHandler struct {
	svc *service.MonitorService
}

// NewMonitorHandler creates a MonitorHandler.
func NewMonitorHandler(svc *service.MonitorService) *MonitorHandler {
	return &MonitorHandler{svc: svc}
}

type priceLevelJSON struct {
	Price         int64 `json:"price"`
	TotalQuantity int64 `json:"total_quantity"`
	OrderCount    int   `json:"order_count"`
}

type bookJSON struct {
	Symbol       string           `json:"symbol"`
	Buys         []priceLevelJSON `json:"buys"`
	Sells        []priceLevelJSON `json:"sells"`
	Spread       *int64           `json:"spread"`
	ActiveOrders int              `json:"active_orders"`
	SnapshotAt   time.Time        `json:"snapshot_at"`
}

type statsJSON struct {
	Symbol          string  `json:"symbol"`
	Position        int64   `json:"position"`
	CashFlow        int64   `json:"cash_flow"`
	OrderedQuantity int64   `json:"ordered_quantity"`
	FilledQuantity  int64   `json:"filled_quantity"`
	FillRatio       float64 `json:"fill_ratio"`
	LastPrice       *int64  `json:"last_price"`
	VWAP            *int64  `json:"vwap"`
	Window          string  `json:"window"`
	TradeCount      int     `json:"trade_count"`
	AvgFillLatency  string  `json:"avg_fill_latency"`
	MaxFillLatency  string  `json:"max_fill_latency"`
}

type tradeJSON struct {
	TradeID    string    `json:"trade_id"`
	OrderID    string    `json:"order_id"`
	Symbol     string    `json:"symbol"`
	Price      int64     `json:"price"`
	Quantity   int64     `json:"quantity"`
	Side       string    `json:"side"`
	ExecutedAt time.Time `json:"executed_at"`
}

// GetBook handles GET /symbols/{symbol}/book.
func (h *MonitorHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	levels := queryInt(r, "levels", 10)

	book, err := h.svc.Book(symbol, levels)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, bookJSON{
		Symbol:       book.Symbol,
		Buys:         toLevelsJSON(book.Buys),
		Sells:        toLevelsJSON(book.Sells),
		Spread:       book.Spread,
		ActiveOrders: book.ActiveOrders,
		SnapshotAt:   book.SnapshotAt,
	})
}

// GetStats handles GET /symbols/{symbol}/stats.
func (h *MonitorHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	stats, err := h.svc.Stats(symbol)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, statsJSON{
		Symbol:          stats.Symbol,
		Position:        stats.Position,
		CashFlow:        stats.CashFlow,
		OrderedQuantity: stats.OrderedQuantity,
		FilledQuantity:  stats.FilledQuantity,
		FillRatio:       stats.FillRatio,
		LastPrice:       stats.LastPrice,
		VWAP:            stats.VWAP,
		Window:          stats.Window,
		TradeCount:      stats.TradeCount,
		AvgFillLatency:  stats.AvgFillLatency.String(),
		MaxFillLatency:  stats.MaxFillLatency.String(),
	})
}

// GetTrades handles GET /symbols/{symbol}/trades.
func (h *MonitorHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	limit := queryInt(r, "limit", 50)

	trades, err := h.svc.RecentTrades(symbol, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]tradeJSON, 0, len(trades))
	for _, t := range trades {
		out = append(out, tradeJSON{
			TradeID:    t.TradeID,
			OrderID:    t.OrderID,
			Symbol:     t.Symbol,
			Price:      t.Price,
			Quantity:   t.Quantity,
			Side:       string(t.Side),
			ExecutedAt: t.ExecutedAt,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"symbol": symbol,
		"trades": out,
	})
}

func toLevelsJSON(levels []engine.PriceLevel) []priceLevelJSON {
	out := make([]priceLevelJSON, 0, len(levels))
	for _, l := range levels {
		out = append(out, priceLevelJSON{
			Price:         l.Price,
			TotalQuantity: l.TotalQuantity,
			OrderCount:    l.OrderCount,
		})
	}
	return out
}

func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrSymbolNotFound) {
		WriteError(w, http.StatusNotFound, "symbol_not_found", "Symbol is not traded on this exchange")
		return
	}
	WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}
