package service

import (
	"context"
	"testing"

	"swap_engine/internal/exchange/exchangetest"
	"swap_engine/internal/models"
	"swap_engine/internal/modules/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFundingFrom(t *testing.T) {
	sc := fundingFrom(models.FundingRate{Rate: -0.0008, Premium: 0.002}, 0.0005)
	assert.Equal(t, 1.0, sc.Value)
	assert.InDelta(t, 0.96, sc.Confidence, 1e-9)

	sc = fundingFrom(models.FundingRate{Rate: 0.0002}, 0.0005)
	assert.Equal(t, 0.0, sc.Value)

	sc = fundingFrom(models.FundingRate{Rate: 0.002, Premium: -0.002}, 0.0005)
	assert.Equal(t, -1.0, sc.Value)
	assert.Equal(t, 1.0, sc.Confidence)
}

func TestMarketScoreKeepsWorkingSource(t *testing.T) {
	agg, fake := newAggregator(t)
	fake.Taker["ETH"] = models.TakerVolume{Ccy: "ETH", Buy: 100, Sell: 200}

	sc := agg.marketScore(context.Background(), "ETH")
	require.NoError(t, sc.Err)
	assert.InDelta(t, -0.3, sc.Value, 1e-9)
	assert.InDelta(t, 0.2, sc.Confidence, 1e-9)
}

func TestTechnicalNeedsHistory(t *testing.T) {
	_, err := analyzeTechnical(newSeries(exchangetest.Trend(btc, 20, 100, 1, 1)), config.Default().Signal)
	assert.ErrorIs(t, err, errInsufficientData)
}

func TestTechnicalUptrend(t *testing.T) {
	tech, err := analyzeTechnical(newSeries(exchangetest.Trend(btc, 120, 100, 0.5, 1)), config.Default().Signal)
	require.NoError(t, err)
	assert.True(t, tech.MACDBullish)
	assert.True(t, tech.Trend)
	assert.True(t, tech.Overbought)
	assert.False(t, tech.Oversold)
	assert.True(t, tech.OK)
	assert.Greater(t, tech.Volatility, 0.0)
}

func TestLevelsNeedFiftyBars(t *testing.T) {
	sup, res := supportResistance(newSeries(exchangetest.Trend(btc, 40, 100, 1, 1)))
	assert.Zero(t, sup)
	assert.Zero(t, res)
}

func TestLevelsAroundPrice(t *testing.T) {
	s := newSeries(exchangetest.Trend(btc, 120, 100, 0.5, 1))
	sup, res := supportResistance(s)
	price := s.lastClose()
	assert.Less(t, sup.Price, price)
	assert.Greater(t, res.Price, price)
	assert.Greater(t, sup.Strength, 0.0)
}

func TestBreakoutUsesPriorBars(t *testing.T) {
	cs := exchangetest.Trend(btc, 30, 100, 0, 1)
	last := &cs[len(cs)-1]
	last.High = 110
	last.Close = 109
	assert.Equal(t, 1.0, breakout(newSeries(cs)))

	last.High, last.Close, last.Low = 100.1, 100, 90
	assert.Equal(t, -1.0, breakout(newSeries(cs)))
}

func TestChainProxy(t *testing.T) {
	assert.True(t, chainProxy(newSeries(exchangetest.Trend(btc, 10, 100, -1, 1))), "insufficient data is positive")
	assert.False(t, chainProxy(newSeries(exchangetest.Trend(btc, 60, 200, -2, 1))))
}
