package service

import (
	"testing"

	"swap_engine/internal/models"
	"swap_engine/internal/modules/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookGetReturnsCopy(t *testing.T) {
	b := NewBook(config.Default())
	b.Put(&models.Position{Symbol: "BTC-USDT-SWAP", Coin: "BTC", Size: 2})

	p, ok := b.Get("BTC-USDT-SWAP")
	require.True(t, ok)
	p.Size = 100

	again, _ := b.Get("BTC-USDT-SWAP")
	assert.Equal(t, 2.0, again.Size)

	assert.True(t, b.Update("BTC-USDT-SWAP", func(p *models.Position) { p.Size = 1 }))
	again, _ = b.Get("BTC-USDT-SWAP")
	assert.Equal(t, 1.0, again.Size)
	assert.False(t, b.Update("ETH-USDT-SWAP", func(*models.Position) {}))
}

func TestBookAggregates(t *testing.T) {
	b := NewBook(config.Default())
	b.Put(&models.Position{Symbol: "ETH-USDT-SWAP", Coin: "ETH", Notional: 50, Margin: 10})
	b.Put(&models.Position{Symbol: "ETH-USD-SWAP", Coin: "ETH", Notional: 30, Margin: 5, Manual: true})
	b.Put(&models.Position{Symbol: "BTC-USDT-SWAP", Coin: "BTC", Notional: 70, Margin: 7})

	assert.Equal(t, 80.0, b.CoinNotional("ETH"))
	manual, auto := b.Margins()
	assert.Equal(t, 5.0, manual)
	assert.Equal(t, 17.0, auto)
	assert.Equal(t, []string{"BTC-USDT-SWAP", "ETH-USD-SWAP", "ETH-USDT-SWAP"}, b.Symbols())

	b.Remove("BTC-USDT-SWAP")
	assert.Equal(t, 2, b.Len())
	assert.False(t, b.Has("BTC-USDT-SWAP"))
}

func TestBookRunningAndTiers(t *testing.T) {
	cfg := config.Default()
	b := NewBook(cfg)
	assert.True(t, b.Running())
	b.Stop()
	assert.False(t, b.Running())

	assert.Equal(t, cfg.Universe.High, b.Tiers().High)
	b.SetTiers(Tiers{High: []string{"A"}, Low: []string{"B"}})
	assert.Equal(t, []string{"A", "B"}, b.Tiers().All())
}

func TestBookWatchListAddsPositions(t *testing.T) {
	b := NewBook(config.Default())
	b.SetTiers(Tiers{High: []string{"A-USDT-SWAP"}, Low: []string{"B-USDT-SWAP"}})
	b.Put(&models.Position{Symbol: "B-USDT-SWAP", Side: models.Long, Size: 1})
	b.Put(&models.Position{Symbol: "Z-USDT-SWAP", Side: models.Long, Size: 1})

	assert.Equal(t, []string{"A-USDT-SWAP", "B-USDT-SWAP", "Z-USDT-SWAP"}, b.WatchList())
}
