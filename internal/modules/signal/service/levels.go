package service

import (
	"math"

	"swap_engine/internal/indicators"
	"swap_engine/internal/models"
)

const (
	levelMinBars     = 50
	fibPeriod        = 100
	fibWindow        = 0.02
	fibThreshold     = 0.6
	candidateMin     = 0.5
	fallbackBars     = 20
	fallbackStrength = 0.3
	previousBars     = 50
)

var strongFib = map[float64]bool{0.382: true, 0.5: true, 0.618: true}

// fibStrength — сила ближайшего фибо-уровня ниже (support) или выше цены.
func fibStrength(s series, price float64, support bool) (strength, level float64) {
	levels := indicators.FibLevels(s.high, s.low, fibPeriod)
	if len(levels) == 0 || price <= 0 {
		return 0, 0
	}

	closest := math.Inf(1)
	var closestRatio float64
	for _, lv := range levels {
		dist := math.Abs(price-lv.Price) / price
		if dist >= fibWindow {
			continue
		}
		if (support && price < lv.Price) || (!support && price > lv.Price) {
			continue
		}
		if dist < closest {
			closest = dist
			closestRatio = lv.Ratio
			level = lv.Price
		}
		strength = math.Max(strength, singleFibStrength(lv.Ratio, dist, s))
	}
	if level == 0 {
		return 0, 0
	}
	if strongFib[closestRatio] && closest < 0.01 {
		strength = math.Min(strength*1.3, 1)
	}
	return strength * priceAction(s, support), level
}

func singleFibStrength(ratio, dist float64, s series) float64 {
	base := 0.5
	if strongFib[ratio] {
		base = 0.7
	}
	base *= math.Max(0.3, 1-dist/fibWindow)

	recent := indicators.MeanLast(s.volume, 5)
	avg := indicators.MeanLast(s.volume, 20)
	switch {
	case recent > avg:
	case recent > avg*0.8:
		base *= 0.8
	default:
		base *= 0.6
	}
	return math.Min(base, 1)
}

// priceAction — подтверждение свечными паттернами, 0.5..1.
func priceAction(s series, support bool) float64 {
	if s.len() < 10 {
		return 0.5
	}
	score := 0.5
	o, h, l, c := s.bar(-1)
	po, _, _, pc := s.bar(-2)

	body := math.Abs(c - o)
	lowerShadow := math.Min(o, c) - l
	upperShadow := h - math.Max(o, c)
	hammer := lowerShadow >= 2*body && upperShadow <= body*0.5

	rsi := indicators.RSI(s.close, 14)
	n := s.len()
	avgVol := indicators.MeanLast(s.volume, 20)
	lastVol := indicators.Last(s.volume)

	if support {
		if c > o && pc < po && o < pc && c > po {
			score += 0.2
		}
		if hammer {
			score += 0.15
		}
		if n >= 19 && s.close[n-1] < s.close[n-5] && rsi[n-1] > rsi[n-5] {
			score += 0.15
		}
		if n >= 20 && lastVol > avgVol*1.5 {
			score += 0.1
		}
	} else {
		if c < o && pc > po && o > pc && c < po {
			score += 0.2
		}
		if hammer {
			score += 0.15
		}
		if n >= 19 && s.close[n-1] > s.close[n-5] && rsi[n-1] < rsi[n-5] {
			score += 0.15
		}
		if n >= 20 && lastVol < avgVol*0.7 {
			score += 0.1
		}
	}
	return math.Min(score, 1)
}

// supportResistance выбирает ближайшие значимые уровни вокруг цены.
func supportResistance(s series) (support, resistance models.Level) {
	if s.len() < levelMinBars {
		return models.Level{}, models.Level{}
	}
	price := s.lastClose()

	var sup, res []models.Level
	add := func(dst *[]models.Level, price, strength, min float64) {
		if price > 0 && strength > min {
			*dst = append(*dst, models.Level{Price: price, Strength: strength})
		}
	}

	fs, fp := fibStrength(s, price, true)
	add(&sup, fp, fs, fibThreshold)
	fr, frp := fibStrength(s, price, false)
	add(&res, frp, fr, fibThreshold)

	for _, period := range []int{20, 50, 100} {
		if s.len() < period {
			continue
		}
		ma := indicators.MeanLast(s.close, period)
		switch {
		case ma < price:
			add(&sup, ma, 0.6, candidateMin)
		case ma > price:
			add(&res, ma, 0.6, candidateMin)
		}
	}

	lower, _, upper := indicators.Bollinger(s.close, 20, 2)
	if price > lower {
		add(&sup, lower, 0.7, candidateMin)
	}
	if price < upper {
		add(&res, upper, 0.7, candidateMin)
	}

	lo := indicators.MinLast(s.low, previousBars)
	hi := indicators.MaxLast(s.high, previousBars)
	if price >= lo {
		add(&sup, lo, math.Max(0, 1-(price-lo)/price*10), candidateMin)
	}
	if price <= hi {
		add(&res, hi, math.Max(0, 1-(hi-price)/price*10), candidateMin)
	}

	for _, c := range sup {
		if c.Price < price && (c.Price > support.Price || c.Price == support.Price && c.Strength > support.Strength) {
			support = c
		}
	}
	for _, c := range res {
		if c.Price > price && (resistance.Price == 0 || c.Price < resistance.Price ||
			c.Price == resistance.Price && c.Strength > resistance.Strength) {
			resistance = c
		}
	}

	if support.Price == 0 {
		support = models.Level{Price: indicators.MinLast(s.low, fallbackBars), Strength: fallbackStrength}
	}
	if resistance.Price == 0 {
		resistance = models.Level{Price: indicators.MaxLast(s.high, fallbackBars), Strength: fallbackStrength}
	}
	return support, resistance
}
