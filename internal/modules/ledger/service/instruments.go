package service

import (
	"context"
	"time"

	"swap_engine/internal/exchange"
	"swap_engine/internal/models"
	cache "swap_engine/internal/modules/cache/service"
	"swap_engine/internal/modules/config"
)

func InstrumentKey(instID string) string { return "instrument:" + instID }

// Instruments — спецификации контрактов через общий кеш.
type Instruments struct {
	market exchange.MarketClient
	cache  *cache.Cache
	ttl    time.Duration
}

func NewInstruments(cfg *config.Config, market exchange.MarketClient, c *cache.Cache) *Instruments {
	return &Instruments{market: market, cache: c, ttl: cfg.Cache.Instrument}
}

func (i *Instruments) Get(ctx context.Context, instID string) (models.Instrument, error) {
	return cache.Get(i.cache, InstrumentKey(instID), i.ttl, func() (models.Instrument, error) {
		return i.market.Instrument(ctx, instID)
	})
}

// Invalidate сбрасывает закешированную спецификацию, следующий Get сходит на биржу.
func (i *Instruments) Invalidate(instID string) {
	i.cache.Invalidate(InstrumentKey(instID))
}

// Warm кладёт в кеш весь список, полученный при старте.
func (i *Instruments) Warm(list []models.Instrument) {
	for _, inst := range list {
		i.cache.Put(InstrumentKey(inst.InstID), inst)
	}
}
