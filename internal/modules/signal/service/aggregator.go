package service

import (
	"context"
	"math"

	"swap_engine/internal/exchange"
	"swap_engine/internal/helper"
	"swap_engine/internal/models"
	cache "swap_engine/internal/modules/cache/service"
	"swap_engine/internal/modules/config"

	"go.uber.org/zap"
)

// Aggregator сводит анализаторы в направленный сигнал по символу.
type Aggregator struct {
	cfg    *config.Config
	market exchange.MarketClient
	cache  *cache.Cache
	log    *zap.Logger
}

func NewAggregator(cfg *config.Config, market exchange.MarketClient, c *cache.Cache, log *zap.Logger) *Aggregator {
	return &Aggregator{cfg: cfg, market: market, cache: c, log: log.Named("signal")}
}

// Candles — свечи рабочего таймфрейма через кеш kline.
func (a *Aggregator) Candles(ctx context.Context, symbol string) ([]models.Candle, error) {
	bar := a.cfg.Signal.Bar
	return cache.Get(a.cache, "kline:"+symbol+":"+bar, a.cfg.Cache.Kline, func() ([]models.Candle, error) {
		return a.market.Candles(ctx, symbol, bar, a.cfg.Signal.CandleLimit)
	})
}

// inputs — всё, что нужно для взвешивания; nil/Err означает отсутствие вклада.
type inputs struct {
	tech       *technical
	enh        *enhanced
	levels     bool
	support    models.Level
	resistance models.Level
	chain      Score
	sentiment  Score
	funding    Score
	market     Score
}

// Evaluate никогда не прерывается на сбое анализатора: он просто не голосует.
func (a *Aggregator) Evaluate(ctx context.Context, symbol string) models.SignalResult {
	res := models.NeutralSignal(symbol)

	candles, err := a.Candles(ctx, symbol)
	if err == nil && len(candles) == 0 {
		err = errInsufficientData
	}
	if err != nil {
		res.Failures["market_data"] = err.Error()
		a.log.Warn("[SIGNAL] market data unavailable", zap.String("symbol", symbol), zap.Error(err))
		return res
	}

	s := newSeries(candles)
	coin := helper.CoinOf(symbol)
	res.Candles = candles
	res.LastClose = s.lastClose()

	var in inputs
	if t, err := analyzeTechnical(s, a.cfg.Signal); err != nil {
		res.Failures["technical"] = err.Error()
	} else {
		in.tech = &t
		res.Volatility = t.Volatility
	}
	if e, err := analyzeEnhanced(s); err != nil {
		res.Failures["enhanced"] = err.Error()
	} else {
		in.enh = &e
	}
	if s.len() >= levelMinBars {
		in.levels = true
		in.support, in.resistance = supportResistance(s)
		res.Support, res.Resistance = in.support, in.resistance
	} else {
		res.Failures["levels"] = errInsufficientData.Error()
	}

	in.chain = a.chainScore(symbol, s)
	in.sentiment = a.sentimentScore(coin)
	in.funding = a.fundingScore(ctx, symbol)
	in.market = a.marketScore(ctx, coin)
	for name, sc := range map[string]Score{
		"chain": in.chain, "sentiment": in.sentiment, "funding": in.funding, "market": in.market,
	} {
		if sc.Err != nil {
			res.Failures[name] = sc.Err.Error()
		}
	}
	if in.funding.Err == nil {
		res.FundingSignal, res.FundingConfidence = in.funding.Value, in.funding.Confidence
	}

	res.LongStrength, res.ShortStrength, res.Components = combine(in, a.cfg.Signal.Weights)
	res.Direction, res.Strength = decide(res.LongStrength, res.ShortStrength, a.cfg.Signal.Threshold, a.cfg.Signal.EnableShort)
	res.Tradable = res.Direction != models.Neutral

	a.log.Debug("[SIGNAL] evaluated",
		zap.String("symbol", symbol),
		zap.String("direction", string(res.Direction)),
		zap.Float64("strength", res.Strength),
		zap.Float64("long", res.LongStrength),
		zap.Float64("short", res.ShortStrength),
		zap.Any("failures", res.Failures),
	)
	return res
}

func b2f(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// combine считает обе стороны; каждая компонента ограничена своим диапазоном до взвешивания.
func combine(in inputs, w config.Weights) (long, short float64, comps map[string]float64) {
	comps = make(map[string]float64)
	put := func(name string, l, s float64) {
		long += l
		short += s
		comps["long."+name] = l
		comps["short."+name] = s
	}

	if t := in.tech; t != nil {
		put("macd", b2f(t.MACDBullish)*w.MACD, b2f(!t.MACDBullish)*w.MACD)
		put("rsi", b2f(t.Oversold)*w.RSI, b2f(t.Overbought)*w.RSI)
		put("trend", b2f(t.Trend)*w.Trend, b2f(!t.Trend)*w.Trend)
		put("technical", b2f(t.OK)*w.Technical, b2f(!t.OK)*w.Technical)
	}
	if e := in.enh; e != nil {
		v := helper.Clamp(e.Score, -1, 1)
		put("enhanced", math.Max(0, v)*w.Enhanced, math.Max(0, -v)*w.Enhanced)
	}
	if in.levels {
		sup := helper.Clamp(in.support.Strength, 0, 1)
		res := helper.Clamp(in.resistance.Strength, 0, 1)
		put("support", sup*w.Support, (1-sup)*w.Support)
		put("level_penalty", -res*w.ResistancePenalty, -sup*w.ResistancePenalty)
	}
	if in.chain.Err == nil {
		v := helper.Clamp(in.chain.Value, 0, 1)
		put("chain", v*w.Chain, (1-v)*w.Chain)
	}
	if in.sentiment.Err == nil {
		v := helper.Clamp(in.sentiment.Value, 0, 1)
		put("sentiment", v*w.Sentiment, (1-v)*w.Sentiment)
	}
	for name, sc := range map[string]Score{"funding": in.funding, "market": in.market} {
		if sc.Err != nil || sc.Value == 0 {
			continue
		}
		weight := w.Funding
		if name == "market" {
			weight = w.Market
		}
		conf := helper.Clamp(sc.Confidence, 0, 1) * weight
		if sc.Value > 0 {
			put(name, conf, 0)
		} else {
			put(name, 0, conf)
		}
	}

	return helper.Clamp(long, 0, 1), helper.Clamp(short, 0, 1), comps
}

// decide: сторона выигрывает только строго и строго выше порога.
func decide(long, short, threshold float64, enableShort bool) (models.Direction, float64) {
	strength := math.Max(long, short)
	switch {
	case long > short && long > threshold:
		return models.Long, long
	case short > long && short > threshold && enableShort:
		return models.Short, short
	}
	return models.Neutral, strength
}
