package service

import (
	"math"

	"swap_engine/internal/helper"
	"swap_engine/internal/indicators"
)

const (
	breakoutLookback  = 20
	breakoutThreshold = 0.02
)

type enhanced struct {
	Score         float64
	FibSupport    float64
	FibResistance float64
}

func analyzeEnhanced(s series) (enhanced, error) {
	if s.len() < levelMinBars {
		return enhanced{}, errInsufficientData
	}
	price := s.lastClose()

	fibSup, _ := fibStrength(s, price, true)
	fibRes, _ := fibStrength(s, price, false)
	position, resistancePenalty := positionScore(s, price)

	score := momentum(s)*0.25 +
		breakout(s)*0.3*0.20 +
		position*0.15 +
		(fibSup-fibRes)*0.15 +
		volumeScore(s)*0.10 -
		resistancePenalty*0.08 -
		volatilityPenalty(s)*0.10

	return enhanced{
		Score:         helper.Clamp(score, -1, 1),
		FibSupport:    fibSup,
		FibResistance: fibRes,
	}, nil
}

func momentum(s series) float64 {
	const period = 20
	n := s.len()
	if n < period {
		return 0
	}
	base := s.close[n-period]
	if base <= 0 {
		return 0
	}
	priceChange := (s.close[n-1] - base) / base

	avgVol := indicators.MeanLast(s.volume, period)
	volChange := 0.0
	if avgVol > 0 {
		volChange = (indicators.Last(s.volume) - avgVol) / avgVol
	}
	rsiMomentum := (indicators.Last(indicators.RSI(s.close, 14)) - 50) / 50

	adj := 1 - math.Min(indicators.CoefVariation(s.close, period)*10, 0.5)
	m := (priceChange*0.4 + math.Tanh(volChange)*0.3 + rsiMomentum*0.3) * adj
	return helper.Clamp(m, -1, 1)
}

// breakout: +1/-1 когда текущий бар пробил экстремум предыдущих 20 баров на 2%.
func breakout(s series) float64 {
	n := s.len()
	if n < breakoutLookback+1 {
		return 0
	}
	prevHigh := indicators.MaxLast(s.high[:n-1], breakoutLookback)
	prevLow := indicators.MinLast(s.low[:n-1], breakoutLookback)
	switch {
	case s.high[n-1] > prevHigh*(1+breakoutThreshold):
		return 1
	case s.low[n-1] < prevLow*(1-breakoutThreshold):
		return -1
	}
	return 0
}

func positionScore(s series, price float64) (score, resistancePenalty float64) {
	if price <= 0 {
		return 0, 0
	}
	hi := indicators.MaxLast(s.high, 20)
	lo := indicators.MinLast(s.low, 20)
	resDist := math.Max(0, (hi-price)/price)
	supDist := math.Max(0, (price-lo)/price)

	resistancePenalty = math.Max(0, 0.5-resDist*10)
	score = 0.5 + math.Min(0.3, supDist*5) - resistancePenalty
	return helper.Clamp(score, 0, 1), resistancePenalty
}

func volumeScore(s series) float64 {
	cur := indicators.Last(s.volume)
	avg := indicators.MeanLast(s.volume, 20)
	switch {
	case cur > avg*2:
		return 1
	case cur > avg*1.5:
		return 0.7
	case cur > avg:
		return 0.3
	}
	return -0.2
}

func volatilityPenalty(s series) float64 {
	v := indicators.CoefVariation(s.close, 20)
	switch {
	case v > 0.08:
		return 0.8
	case v > 0.05:
		return 0.4
	}
	return 0
}
