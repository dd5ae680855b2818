package service

import (
	"context"
	"testing"
	"time"

	"swap_engine/internal/exchange/exchangetest"
	"swap_engine/internal/models"
	"swap_engine/internal/modules/config"
	portfolio "swap_engine/internal/modules/portfolio/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ticker(id string, open, high, low, volCcy float64) models.Ticker {
	return models.Ticker{InstID: id, Last: open, Open24h: open, High24h: high, Low24h: low, VolCcy24h: volCcy}
}

func newSelector(t *testing.T) (*Selector, *exchangetest.Fake, *portfolio.Book) {
	t.Helper()
	cfg := config.Default()
	cfg.Universe.High = []string{"AAA-USDT-SWAP"}
	cfg.Universe.Medium = []string{"BBB-USDT-SWAP"}
	cfg.Universe.Low = []string{"CCC-USDT-SWAP", "DEAD-USDT-SWAP"}
	cfg.Universe.TopVolumeN = 1

	ex := exchangetest.New()
	ex.TickerMap["AAA-USDT-SWAP"] = ticker("AAA-USDT-SWAP", 100, 101, 100, 10)
	ex.TickerMap["BBB-USDT-SWAP"] = ticker("BBB-USDT-SWAP", 100, 105, 100, 20)
	ex.TickerMap["CCC-USDT-SWAP"] = ticker("CCC-USDT-SWAP", 100, 110, 100, 30)
	ex.TickerMap["VOL-USDT-SWAP"] = ticker("VOL-USDT-SWAP", 100, 103, 100, 1000)
	ex.TickerMap["BTC-USD-SWAP"] = ticker("BTC-USD-SWAP", 100, 150, 100, 5000)

	book := portfolio.NewBook(cfg)
	return NewSelector(cfg, ex, book, zap.NewNop()), ex, book
}

func TestSelectSplitsByVolatility(t *testing.T) {
	s, _, book := newSelector(t)

	tiers, err := s.Select(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BBB-USDT-SWAP", "CCC-USDT-SWAP"}, tiers.High)
	assert.Equal(t, []string{"VOL-USDT-SWAP"}, tiers.Medium)
	assert.Equal(t, []string{"AAA-USDT-SWAP"}, tiers.Low)
	assert.Equal(t, tiers, book.Tiers())
	assert.NotContains(t, tiers.All(), "DEAD-USDT-SWAP", "not listed on the exchange")
	assert.NotContains(t, tiers.All(), "BTC-USD-SWAP", "coin-margined")
}

func TestSelectForcesPositionsIntoHigh(t *testing.T) {
	s, _, book := newSelector(t)
	book.Put(&models.Position{Symbol: "AAA-USDT-SWAP", Coin: "AAA", Side: models.Long, Size: 1})

	tiers, err := s.Select(context.Background())
	require.NoError(t, err)
	assert.Contains(t, tiers.High, "AAA-USDT-SWAP")
	assert.NotContains(t, tiers.Low, "AAA-USDT-SWAP")
	assert.NotContains(t, tiers.Medium, "AAA-USDT-SWAP")
}

func TestSelectKeepsPreviousTiersOnEmptyTickers(t *testing.T) {
	s, ex, book := newSelector(t)
	first, err := s.Select(context.Background())
	require.NoError(t, err)

	ex.TickerMap = map[string]models.Ticker{}
	got, err := s.Select(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.Equal(t, first, book.Tiers())
}

func TestTopVolumeReRankedDaily(t *testing.T) {
	s, ex, _ := newSelector(t)
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	_, err := s.Select(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"VOL-USDT-SWAP"}, s.topVol)

	ex.TickerMap["NEW-USDT-SWAP"] = ticker("NEW-USDT-SWAP", 100, 101, 100, 9999)
	now = now.Add(time.Hour)
	_, err = s.Select(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"VOL-USDT-SWAP"}, s.topVol)

	now = now.Add(24 * time.Hour)
	tiers, err := s.Select(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"NEW-USDT-SWAP"}, s.topVol)
	assert.Contains(t, tiers.All(), "NEW-USDT-SWAP")
	assert.NotContains(t, tiers.All(), "VOL-USDT-SWAP")
}

func TestPercentile(t *testing.T) {
	v := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 3.0, percentile(v, 50), 1e-9)
	assert.InDelta(t, 1.0, percentile(v, 0), 1e-9)
	assert.InDelta(t, 5.0, percentile(v, 100), 1e-9)
	assert.InDelta(t, 7.0, percentile([]float64{7}, 66), 1e-9)
}
