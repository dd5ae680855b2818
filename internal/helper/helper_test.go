package helper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFloorToLot(t *testing.T) {
	assert.Equal(t, 0.3, FloorToLot(0.30000000000000004, 0.1))
	assert.Equal(t, 12.0, FloorToLot(12.99, 1))
	assert.Equal(t, 0.0, FloorToLot(0.009, 0.01))
	assert.Equal(t, 0.0, FloorToLot(-1, 1))
}

func TestIsLotMultiple(t *testing.T) {
	assert.True(t, IsLotMultiple(0.3, 0.1))
	assert.True(t, IsLotMultiple(7, 1))
	assert.False(t, IsLotMultiple(0.35, 0.1))
}

func TestRoundToTick(t *testing.T) {
	assert.Equal(t, 101.25, RoundToTick(101.2499, 0.01))
	assert.Equal(t, 101.2, RoundDownToTick(101.29, 0.1))
	assert.Equal(t, 101.3, RoundUpToTick(101.21, 0.1))
}

func TestMarginFits(t *testing.T) {
	assert.True(t, MarginFits(10, 10))
	assert.False(t, MarginFits(10.01, 10))
	assert.False(t, MarginFits(0, 10))
}

func TestCoinOf(t *testing.T) {
	assert.Equal(t, "BTC", CoinOf("BTC-USDT-SWAP"))
	assert.True(t, IsUSDTSwap("ETH-USDT-SWAP"))
	assert.False(t, IsUSDTSwap("ETH-USD-SWAP"))
	assert.Equal(t, "1H", OkxBar("1h"))
	assert.Equal(t, time.Hour, BarDuration("1h"))
	assert.Equal(t, 15*time.Minute, BarDuration("15m"))
}
