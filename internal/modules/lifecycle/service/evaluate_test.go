package service

import (
	"testing"
	"time"

	"swap_engine/internal/exchange/exchangetest"
	"swap_engine/internal/models"
	"swap_engine/internal/modules/config"

	"github.com/stretchr/testify/assert"
)

var now = time.Unix(1_700_000_000, 0)

func inst() models.Instrument {
	return models.Instrument{InstID: "SOL-USDT-SWAP", Kind: models.ContractLinearUSDT, CtVal: 1, LotSz: 1, MinSz: 1, TickSz: 0.01}
}

func long(lev int) *models.Position {
	return &models.Position{
		Symbol: "SOL-USDT-SWAP", Coin: "SOL", Side: models.Long, Leverage: lev,
		Size: 10, OriginalSize: 10, OpenPrice: 100, CtVal: 1, Remaining: 1,
	}
}

func mkt(price float64) Market {
	return Market{Price: price, Instrument: inst(), Equity: 100000, Tradable: 50000, Now: now}
}

func sig(dir models.Direction, strength float64) models.SignalResult {
	return models.SignalResult{Symbol: "SOL-USDT-SWAP", Direction: dir, Strength: strength, Tradable: dir != models.Neutral}
}

func newEval() *Evaluator { return NewEvaluator(config.Default()) }

func TestStagedStopsFireInOrderOnce(t *testing.T) {
	e := newEval()
	p := long(1)
	p.FirstStopDone = true

	d := e.Evaluate(p, sig(models.Neutral, 0), mkt(90))
	assert.Equal(t, Hold, d.Action, "-10%% with first stage done must not re-fire")

	d = e.Evaluate(p, sig(models.Neutral, 0), mkt(88))
	assert.Equal(t, PartialClose, d.Action)
	assert.Equal(t, 2, d.Stage)
	assert.Equal(t, 4.0, d.Quantity)

	p.SecondStopDone = true
	d = e.Evaluate(p, sig(models.Neutral, 0), mkt(87))
	assert.Equal(t, Hold, d.Action)

	d = e.Evaluate(p, sig(models.Neutral, 0), mkt(85))
	assert.Equal(t, FullClose, d.Action)
	assert.Equal(t, 10.0, d.Quantity)
}

func TestFirstStageClosesShareOfOriginal(t *testing.T) {
	p := long(2)
	p.Size, p.Remaining = 7, 0.7
	d := newEval().Evaluate(p, sig(models.Neutral, 0), mkt(96)) // -8% на маржу
	assert.Equal(t, PartialClose, d.Action)
	assert.Equal(t, 1, d.Stage)
	assert.Equal(t, 3.0, d.Quantity)
}

func TestStageLeavingDustClosesFully(t *testing.T) {
	p := long(1)
	p.Size, p.OriginalSize = 1, 1
	d := newEval().Evaluate(p, sig(models.Neutral, 0), mkt(91))
	assert.Equal(t, FullClose, d.Action)
	assert.Equal(t, 1, d.Stage)
}

func TestTrailingStop(t *testing.T) {
	p := long(1)
	p.PeakSet, p.PeakProfit = true, 0.10
	d := newEval().Evaluate(p, sig(models.Neutral, 0), mkt(97.9))
	assert.Equal(t, FullClose, d.Action)
	assert.Contains(t, d.Reason, "trailing")
	assert.Equal(t, 0.10, d.Peak)
}

func TestPeakInitialisedOnFirstEvaluation(t *testing.T) {
	p := long(2)
	d := newEval().Evaluate(p, sig(models.Neutral, 0), mkt(97))
	assert.InDelta(t, -0.06, d.Peak, 1e-9)

	p.PeakSet, p.PeakProfit = true, d.Peak
	d = newEval().Evaluate(p, sig(models.Neutral, 0), mkt(95))
	assert.InDelta(t, -0.06, d.Peak, 1e-9)
}

func TestSmartTakeProfitPartial(t *testing.T) {
	e := newEval()
	p := long(2)

	d := e.Evaluate(p, sig(models.Long, 0.5), mkt(116))
	assert.Equal(t, PartialClose, d.Action)
	assert.Equal(t, 1, d.Tier)
	assert.Equal(t, 3.0, d.Quantity)

	s := sig(models.Long, 0.5)
	s.Resistance = models.Level{Price: 116.5, Strength: 0.8}
	d = e.Evaluate(p, s, mkt(116))
	assert.Equal(t, 5.0, d.Quantity)
	assert.InDelta(t, 0.5, d.Ratio, 1e-9)
}

func TestSmartTakeProfitTierTwoNeedsHalfRemaining(t *testing.T) {
	e := newEval()
	p := long(1)
	p.Size, p.Remaining = 7, 0.7

	d := e.Evaluate(p, sig(models.Long, 0.5), mkt(136))
	assert.Equal(t, PartialClose, d.Action)
	assert.Equal(t, 2, d.Tier)
	assert.Equal(t, 4.0, d.Quantity)

	p.Size, p.Remaining = 4, 0.4
	d = e.Evaluate(p, sig(models.Long, 0.5), mkt(136))
	assert.NotEqual(t, 2, d.Tier)
}

func TestSmartTakeProfitRolloverAndWeakClose(t *testing.T) {
	e := newEval()
	p := long(2)

	d := e.Evaluate(p, sig(models.Long, 0.8), mkt(116))
	assert.Equal(t, Rollover, d.Action)

	p.RolloverCount = 3
	d = e.Evaluate(p, sig(models.Long, 0.8), mkt(116))
	assert.Equal(t, PartialClose, d.Action, "max rollovers reached")

	d = e.Evaluate(long(2), sig(models.Short, 0.3), mkt(116))
	assert.Equal(t, FullClose, d.Action)
}

func TestFloatLossAdd(t *testing.T) {
	p := long(1)
	p.FirstStopDone = true
	s := sig(models.Long, 0.7)
	s.Support = models.Level{Price: 90, Strength: 0.75}

	d := newEval().Evaluate(p, s, mkt(91))
	assert.Equal(t, FloatAdd, d.Action)
	assert.Equal(t, 1.0, d.Quantity)
	assert.InDelta(t, 0.18, d.Ratio, 1e-9)

	p.FloatAddCount = 1
	d = newEval().Evaluate(p, s, mkt(91))
	assert.NotEqual(t, FloatAdd, d.Action)

	p.FloatAddCount = 0
	s.Support.Price = 80
	d = newEval().Evaluate(p, s, mkt(91))
	assert.NotEqual(t, FloatAdd, d.Action, "support too far")
}

func TestRolloverConditions(t *testing.T) {
	e := newEval()

	p := long(1)
	p.Size, p.Remaining = 7, 0.7
	d := e.Evaluate(p, sig(models.Long, 0.65), mkt(116))
	assert.Equal(t, Rollover, d.Action)
	assert.Contains(t, d.Reason, "profit")

	funding := sig(models.Neutral, 0)
	funding.FundingSignal, funding.FundingConfidence = 1, 0.8
	d = e.Evaluate(long(1), funding, mkt(106))
	assert.Equal(t, Rollover, d.Action)
	assert.Contains(t, d.Reason, "funding")

	maxed := long(1)
	maxed.RolloverCount = 3
	d = e.Evaluate(maxed, funding, mkt(106))
	assert.Equal(t, Hold, d.Action)

	calm := sig(models.Long, 0.5)
	calm.Candles = exchangetest.Trend("SOL-USDT-SWAP", 30, 109, 0.01, 1)
	d = e.Evaluate(long(1), calm, mkt(109))
	assert.Equal(t, Rollover, d.Action)
	assert.Contains(t, d.Reason, "volatility")
}

func TestAddByExposure(t *testing.T) {
	e := newEval()
	p := long(2)
	p.CtVal = 0.1
	m := mkt(100)
	m.Instrument.CtVal = 0.1
	m.Equity, m.CoinNotional = 1000, 50

	d := e.Evaluate(p, sig(models.Long, 0.8), m)
	assert.Equal(t, AddOn, d.Action)
	assert.Equal(t, 1.0, d.Quantity)

	p.LastAddTime = now.Add(-time.Minute)
	assert.Equal(t, Hold, e.Evaluate(p, sig(models.Long, 0.8), m).Action)

	p.LastAddTime = now.Add(-6 * time.Minute)
	assert.Equal(t, AddOn, e.Evaluate(p, sig(models.Long, 0.8), m).Action)

	m.CoinNotional = 100
	assert.Equal(t, Hold, e.Evaluate(p, sig(models.Long, 0.8), m).Action)

	m.CoinNotional = 50
	assert.Equal(t, Hold, e.Evaluate(p, sig(models.Short, 0.8), m).Action)
}
