package service

import (
	"swap_engine/internal/indicators"
	"swap_engine/internal/modules/config"
)

const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
	atrPeriod  = 14
	trendBack  = 5
)

type technical struct {
	MACDBullish bool
	RSI         float64
	Oversold    bool
	Overbought  bool
	Trend       bool
	OK          bool
	Volatility  float64 // ATR/close
}

func analyzeTechnical(s series, cfg config.SignalConfig) (technical, error) {
	if s.len() < macdSlow+macdSignal || s.len() <= cfg.RSIPeriod || s.len() <= trendBack {
		return technical{}, errInsufficientData
	}

	macd, sig := indicators.MACD(s.close, macdFast, macdSlow, macdSignal)
	rsi := indicators.Last(indicators.RSI(s.close, cfg.RSIPeriod))
	last := s.lastClose()

	t := technical{
		MACDBullish: indicators.Last(macd) > indicators.Last(sig),
		RSI:         rsi,
		Oversold:    rsi <= cfg.RSIOversold,
		Overbought:  rsi >= cfg.RSIOverbought,
		Trend:       last >= s.close[s.len()-1-trendBack],
	}

	volBoost := indicators.Last(s.volume) >= indicators.MeanLast(s.volume, 5)*cfg.VolumeMultiple
	t.OK = t.MACDBullish || volBoost || t.Oversold

	if last > 0 {
		t.Volatility = indicators.Last(indicators.ATR(s.high, s.low, s.close, atrPeriod)) / last
	}
	return t, nil
}
