package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"swap_engine/internal/errs"
	"swap_engine/internal/helper"
	"swap_engine/internal/models"
)

func (c *Client) Ticker(ctx context.Context, instID string) (models.Ticker, error) {
	rows, err := call[tickerDTO](ctx, c, "ticker", http.MethodGet, "/api/v5/market/ticker",
		url.Values{"instId": {instID}}, nil, false)
	if err != nil {
		return models.Ticker{}, err
	}
	if len(rows) == 0 {
		return models.Ticker{}, errs.Rejection("ticker", "51001", "no ticker for "+instID)
	}
	t := toTicker(rows[0])
	if t.Last <= 0 {
		return models.Ticker{}, errs.Validation("ticker", "%s last <= 0", instID)
	}
	return t, nil
}

// Tickers — все SWAP тикеры одним запросом.
func (c *Client) Tickers(ctx context.Context) ([]models.Ticker, error) {
	rows, err := call[tickerDTO](ctx, c, "tickers", http.MethodGet, "/api/v5/market/tickers",
		url.Values{"instType": {"SWAP"}}, nil, false)
	if err != nil {
		return nil, err
	}
	out := make([]models.Ticker, 0, len(rows))
	for _, r := range rows {
		out = append(out, toTicker(r))
	}
	return out, nil
}

func toTicker(r tickerDTO) models.Ticker {
	return models.Ticker{
		InstID:    r.InstID,
		Last:      num(r.Last),
		Open24h:   num(r.Open24h),
		High24h:   num(r.High24h),
		Low24h:    num(r.Low24h),
		VolCcy24h: num(r.VolCcy24h),
		BidPx:     num(r.BidPx),
		AskPx:     num(r.AskPx),
		Ts:        msTime(r.Ts),
	}
}

// Candles: строка OKX [ts, o, h, l, c, vol, volCcy, volCcyQuote, confirm], новые первыми.
// Наружу отдаём по возрастанию времени.
func (c *Client) Candles(ctx context.Context, instID, bar string, limit int) ([]models.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	bar = helper.OkxBar(bar)
	q := url.Values{"instId": {instID}, "bar": {bar}, "limit": {strconv.Itoa(limit)}}
	rows, err := call[[]string](ctx, c, "candles", http.MethodGet, "/api/v5/market/candles", q, nil, false)
	if err != nil {
		return nil, err
	}

	tf := helper.BarDuration(bar)
	out := make([]models.Candle, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if len(row) < 5 {
			continue
		}
		start := msTime(row[0])
		closep := num(row[4])
		if start.IsZero() || closep <= 0 {
			continue
		}
		cd := models.Candle{
			InstID:    instID,
			Open:      num(row[1]),
			High:      num(row[2]),
			Low:       num(row[3]),
			Close:     closep,
			Start:     start,
			End:       start.Add(tf),
			Confirmed: row[len(row)-1] == "1",
		}
		if len(row) >= 6 {
			cd.Volume = num(row[5])
		}
		if len(row) >= 8 {
			cd.QuoteVolume = num(row[7])
		}
		out = append(out, cd)
	}
	if len(out) == 0 {
		return nil, errs.Rejection("candles", "", "no candles for "+instID)
	}
	return out, nil
}

func (c *Client) OrderBookTop(ctx context.Context, instID string) (models.BookTop, error) {
	rows, err := call[bookDTO](ctx, c, "books", http.MethodGet, "/api/v5/market/books",
		url.Values{"instId": {instID}, "sz": {"1"}}, nil, false)
	if err != nil {
		return models.BookTop{}, err
	}
	var top models.BookTop
	if len(rows) == 0 {
		return top, errs.Rejection("books", "", "empty book for "+instID)
	}
	if len(rows[0].Bids) > 0 && len(rows[0].Bids[0]) > 0 {
		top.BidPx = num(rows[0].Bids[0][0])
	}
	if len(rows[0].Asks) > 0 && len(rows[0].Asks[0]) > 0 {
		top.AskPx = num(rows[0].Asks[0][0])
	}
	return top, nil
}

func (c *Client) FundingRate(ctx context.Context, instID string) (models.FundingRate, error) {
	rows, err := call[fundingDTO](ctx, c, "funding_rate", http.MethodGet, "/api/v5/public/funding-rate",
		url.Values{"instId": {instID}}, nil, false)
	if err != nil {
		return models.FundingRate{}, err
	}
	if len(rows) == 0 {
		return models.FundingRate{}, errs.Rejection("funding_rate", "", "no funding rate for "+instID)
	}
	return models.FundingRate{
		InstID:  rows[0].InstID,
		Rate:    num(rows[0].FundingRate),
		Premium: num(rows[0].Premium),
	}, nil
}

// TakerVolume: rubik отдаёт [ts, sellVol, buyVol], берём последнюю точку.
func (c *Client) TakerVolume(ctx context.Context, ccy string) (models.TakerVolume, error) {
	q := url.Values{"ccy": {ccy}, "instType": {"CONTRACTS"}, "period": {"5m"}}
	rows, err := call[[]string](ctx, c, "taker_volume", http.MethodGet, "/api/v5/rubik/stat/taker-volume", q, nil, false)
	if err != nil {
		return models.TakerVolume{}, err
	}
	if len(rows) == 0 || len(rows[0]) < 3 {
		return models.TakerVolume{}, errs.Rejection("taker_volume", "", "no taker volume for "+ccy)
	}
	return models.TakerVolume{Ccy: ccy, Sell: num(rows[0][1]), Buy: num(rows[0][2])}, nil
}

// LendingRatio — отношение маржинального кредита [ts, ratio], последняя точка.
func (c *Client) LendingRatio(ctx context.Context, ccy string) (float64, error) {
	q := url.Values{"ccy": {ccy}, "period": {"5m"}}
	rows, err := call[[]string](ctx, c, "lending_ratio", http.MethodGet, "/api/v5/rubik/stat/margin/loan-ratio", q, nil, false)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) < 2 {
		return 0, errs.Rejection("lending_ratio", "", "no lending ratio for "+ccy)
	}
	return num(rows[0][1]), nil
}
