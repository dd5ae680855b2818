package exchange

import (
	"context"
	"swap_engine/internal/models"
)

// TradeClient — торговые операции.
type TradeClient interface {
	PlaceOrder(ctx context.Context, req models.OrderRequest) (ordID string, err error)
	CancelOrder(ctx context.Context, instID, ordID string) error
	GetOrder(ctx context.Context, instID, ordID string) (models.OrderState, error)
	OpenOrders(ctx context.Context) ([]models.OrderState, error)
	SetLeverage(ctx context.Context, instID string, lever int, mgnMode, posSide string) error
}

// AccountClient — состояние счёта.
type AccountClient interface {
	Balance(ctx context.Context) (models.Balance, error)
	Positions(ctx context.Context) ([]models.ExchangePosition, error)
	SetPositionMode(ctx context.Context, mode string) error
}

// MarketClient — публичные рыночные данные.
type MarketClient interface {
	Instrument(ctx context.Context, instID string) (models.Instrument, error)
	Instruments(ctx context.Context) ([]models.Instrument, error)
	Ticker(ctx context.Context, instID string) (models.Ticker, error)
	Tickers(ctx context.Context) ([]models.Ticker, error)
	Candles(ctx context.Context, instID, bar string, limit int) ([]models.Candle, error)
	FundingRate(ctx context.Context, instID string) (models.FundingRate, error)
	TakerVolume(ctx context.Context, ccy string) (models.TakerVolume, error)
	LendingRatio(ctx context.Context, ccy string) (float64, error)
	OrderBookTop(ctx context.Context, instID string) (models.BookTop, error)
}

// Client — всё сразу, так его отдаёт okx_client.
type Client interface {
	TradeClient
	AccountClient
	MarketClient
}
