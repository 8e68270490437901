package domain

import "time"

// MarketData is a top-of-book quote delivered by a data feed.
type MarketData struct {
	Symbol      string
	BidPrice    int64 // cents
	AskPrice    int64 // cents
	BidQuantity int64
	AskQuantity int64
	Timestamp   time.Time
}

// Mid returns the mid price between bid and ask.
func (m MarketData) Mid() int64 {
	return (m.BidPrice + m.AskPrice) / 2
}
