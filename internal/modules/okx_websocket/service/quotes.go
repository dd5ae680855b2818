package service

import (
	"context"

	"swap_engine/internal/exchange"

	"github.com/pkg/errors"
)

// Quotes — текущая цена: сначала лента, потом REST-тикер.
type Quotes struct {
	feed   *Feed
	market exchange.MarketClient
}

func NewQuotes(feed *Feed, market exchange.MarketClient) *Quotes {
	return &Quotes{feed: feed, market: market}
}

func (q *Quotes) Last(ctx context.Context, instID string) (float64, error) {
	if q.feed != nil {
		if px, ok := q.feed.Price(instID); ok {
			return px, nil
		}
	}
	t, err := q.market.Ticker(ctx, instID)
	if err != nil {
		return 0, errors.Wrapf(err, "ticker %s", instID)
	}
	if t.Last <= 0 {
		return 0, errors.Errorf("ticker %s: no last price", instID)
	}
	return t.Last, nil
}
